package metadata

// Rule looks a candidate value up in src. An empty string means no match.
type Rule[S any] func(src S) string

// Chain is an ordered list of rules. The first rule producing a non-empty
// value wins; later rules are not evaluated.
type Chain[S any] []Rule[S]

// First evaluates the rules in order and returns the first non-empty value.
func (c Chain[S]) First(src S) (string, bool) {
	for _, rule := range c {
		if v := rule(src); v != "" {
			return v, true
		}
	}
	return "", false
}

// Resolve is First returning a pointer, nil when no rule matched.
func (c Chain[S]) Resolve(src S) *string {
	v, ok := c.First(src)
	if !ok {
		return nil
	}
	return &v
}
