package schema

import (
	"time"

	"github.com/google/uuid"
)

// Option customizes default generation for StatusCheck construction.
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() string
}

// WithClock overrides the time source used for generated timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator overrides the generator used for missing ids.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewStatusCheck builds a StatusCheck from its create input, generating a
// fresh id and the current UTC time.
func NewStatusCheck(in StatusCheckCreate, opts ...Option) StatusCheck {
	o := newOptions(opts)
	return StatusCheck{
		ID:         o.newID(),
		ClientName: in.ClientName,
		Timestamp:  o.now().UTC(),
	}
}

func applyStatusDefaults(sc StatusCheck, fields map[string]any, o options) StatusCheck {
	if _, ok := fields["id"]; !ok {
		sc.ID = o.newID()
	}
	if _, ok := fields["timestamp"]; !ok {
		sc.Timestamp = o.now()
	}
	sc.Timestamp = sc.Timestamp.UTC()
	return sc
}
