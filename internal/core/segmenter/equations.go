package segmenter

// Equations returns the bodies of inline equations in text, in order of
// appearance. Repeats are kept.
func (s *MarkerSplitter) Equations(text string) []string {
	matches := s.equation.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	eqs := make([]string, 0, len(matches))
	for _, m := range matches {
		for _, body := range m[1:] {
			if body != "" {
				eqs = append(eqs, body)
				break
			}
		}
	}
	return eqs
}
