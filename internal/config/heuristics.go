package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Heuristics holds the patterns that drive segment splitting and
// classification. They are tuned against real exam papers, so they live in
// configuration rather than code.
type Heuristics struct {
	// BoundaryPattern matches a list marker at the start of a line. Leading
	// indentation includes Unicode spaces such as U+3000 and U+00A0.
	BoundaryPattern string `yaml:"boundary_pattern"`
	// EquationPattern has two capture groups, one per delimiter form.
	EquationPattern string `yaml:"equation_pattern"`
	ChoicePattern   string `yaml:"choice_pattern"`
	BlankPattern    string `yaml:"blank_pattern"`
}

const (
	DefaultBoundaryPattern = `(?m)^(?:[\s\p{Zs}]*[0-9０-９]+[.、]|[\s\p{Zs}]*[一二三四五六七八九十]+[、．])`
	DefaultEquationPattern = `\$([^$]+)\$|\\\(([^)]+)\\\)`
	DefaultChoicePattern   = `选择|A\.|B\.|C\.|D\.`
	DefaultBlankPattern    = `[_＿]{2,}|填空|空格`
)

// DefaultHeuristics returns the built-in pattern set.
func DefaultHeuristics() *Heuristics {
	return &Heuristics{
		BoundaryPattern: DefaultBoundaryPattern,
		EquationPattern: DefaultEquationPattern,
		ChoicePattern:   DefaultChoicePattern,
		BlankPattern:    DefaultBlankPattern,
	}
}

// LoadHeuristics reads a YAML override file. Fields left empty keep their
// defaults; an empty path returns the defaults.
func LoadHeuristics(path string) (*Heuristics, error) {
	h := DefaultHeuristics()
	if path == "" {
		return h, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read heuristics file: %w", err)
	}
	var override Heuristics
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse heuristics file %s: %w", path, err)
	}
	if override.BoundaryPattern != "" {
		h.BoundaryPattern = override.BoundaryPattern
	}
	if override.EquationPattern != "" {
		h.EquationPattern = override.EquationPattern
	}
	if override.ChoicePattern != "" {
		h.ChoicePattern = override.ChoicePattern
	}
	if override.BlankPattern != "" {
		h.BlankPattern = override.BlankPattern
	}

	if err := h.Validate(); err != nil {
		return nil, fmt.Errorf("heuristics file %s: %w", path, err)
	}
	return h, nil
}

// Validate checks that every pattern compiles and that the equation pattern
// has the two capture groups the segmenter reads.
func (h *Heuristics) Validate() error {
	for name, p := range map[string]string{
		"boundary_pattern": h.BoundaryPattern,
		"choice_pattern":   h.ChoicePattern,
		"blank_pattern":    h.BlankPattern,
	} {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	eq, err := regexp.Compile(h.EquationPattern)
	if err != nil {
		return fmt.Errorf("equation_pattern: %w", err)
	}
	if eq.NumSubexp() < 1 {
		return fmt.Errorf("equation_pattern: needs at least one capture group")
	}
	return nil
}
