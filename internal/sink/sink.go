// Package sink persists per-category pipeline artifacts: usage statistics
// JSON and the joined CSV report.
package sink

import (
	"context"
	"errors"
)

// Sink accepts the artifacts one category run produces. Implementations own
// placement under their medium; callers pass the bare file name and the
// already-encoded bytes.
type Sink interface {
	Write(ctx context.Context, name string, data []byte) error
}

// MultiSink fans writes out to several sinks. Every sink is attempted even
// when an earlier one fails; the combined error reports all failures.
type MultiSink struct {
	sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) Write(ctx context.Context, name string, data []byte) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(ctx, name, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
