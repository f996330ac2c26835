package scraper

import (
	"errors"
	"strings"
)

// ErrEmptyResult marks a response that parsed fine but carries nothing usable
// (no list items, no chapters, no images). Failover treats it like a fetch error.
var ErrEmptyResult = errors.New("empty result")

// Attempt is one source's failure inside a failover call.
type Attempt struct {
	Source string
	Err    error
}

// FailoverError is returned when every source failed or returned invalid
// data. It is the only error Failover hands back to callers.
type FailoverError struct {
	Op       string
	Attempts []Attempt
}

func (e *FailoverError) Error() string {
	var b strings.Builder
	b.WriteString("scraper: ")
	b.WriteString(e.Op)
	b.WriteString(": all sources failed")
	for _, a := range e.Attempts {
		b.WriteString("; ")
		b.WriteString(a.Source)
		b.WriteString(": ")
		b.WriteString(a.Err.Error())
	}
	return b.String()
}

func (e *FailoverError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}
