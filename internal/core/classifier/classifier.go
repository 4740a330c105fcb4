package classifier

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/markdave123-py/PaperSplit/internal/config"
	"github.com/markdave123-py/PaperSplit/internal/core"
	"github.com/markdave123-py/PaperSplit/internal/models"
)

// KeywordClassifier labels text by keyword patterns, first match wins:
// choice markers, then blank markers, then free response.
type KeywordClassifier struct {
	choice *regexp.Regexp
	blank  *regexp.Regexp
}

var _ core.Classifier = (*KeywordClassifier)(nil)

func New(h *config.Heuristics) (*KeywordClassifier, error) {
	if h == nil {
		h = config.DefaultHeuristics()
	}
	choice, err := regexp.Compile(h.ChoicePattern)
	if err != nil {
		return nil, fmt.Errorf("compile choice pattern: %w", err)
	}
	blank, err := regexp.Compile(h.BlankPattern)
	if err != nil {
		return nil, fmt.Errorf("compile blank pattern: %w", err)
	}
	return &KeywordClassifier{choice: choice, blank: blank}, nil
}

func Default() *KeywordClassifier {
	c, err := New(config.DefaultHeuristics())
	if err != nil {
		panic(err)
	}
	return c
}

func (c *KeywordClassifier) Classify(text string) models.QuestionType {
	t := strings.TrimSpace(text)
	switch {
	case c.choice.MatchString(t):
		return models.MultipleChoice
	case c.blank.MatchString(t):
		return models.FillInBlank
	default:
		return models.FreeResponse
	}
}
