package dataset

import "fmt"

// LoadError reports a dataset that could not be fetched or parsed. It is
// fatal for the session: nothing can be rendered without the dataset.
type LoadError struct {
	Source string
	Op     string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("load dataset: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("load dataset %s: %s: %v", e.Source, e.Op, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func loadErr(source, op string, err error) error {
	return &LoadError{Source: source, Op: op, Err: err}
}
