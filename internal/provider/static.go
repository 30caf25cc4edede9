package provider

import "context"

// Static always returns a fixed score. Used for demos and for pinning fusion
// behavior in tests.
type Static struct {
	name  string
	score float64
	err   error
}

// NewStatic builds a fixed-score provider for the named channel.
func NewStatic(name string, score float64) *Static {
	return &Static{name: name, score: score}
}

// NewFailing builds a provider that always reports the given error, for
// exercising fail-open paths.
func NewFailing(name string, err error) *Static {
	return &Static{name: name, err: err}
}

func (s *Static) Name() string { return s.name }

func (s *Static) Score(ctx context.Context, imagePath, text string) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.score, nil
}
