package indicator

// Set is a named collection of indicator series, all aligned with the same
// bar series. Built once per analysis run and read-only afterwards.
type Set struct {
	series map[string]Series
}

// NewSet creates an empty indicator Set.
func NewSet() *Set {
	return &Set{series: make(map[string]Series)}
}

// Add stores a series under the given name, replacing any previous entry.
func (s *Set) Add(name string, series Series) {
	s.series[name] = series
}

// Get retrieves a series by name. The second return value indicates whether
// the series exists.
func (s *Set) Get(name string) (Series, bool) {
	v, ok := s.series[name]
	return v, ok
}

// Value returns the series value at index i, or false if the series is
// missing or undefined there.
func (s *Set) Value(name string, i int) (float64, bool) {
	v, ok := s.series[name]
	if !ok {
		return 0, false
	}
	return v.At(i)
}
