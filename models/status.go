package models

import (
	"errors"
	"fmt"
)

// Status is the success/message envelope handed to scraper calls. Calls
// mutate it instead of returning errors so a host can report failures
// without knowing the scraper's error types.
type Status struct {
	OK  bool
	Msg string
}

// NewStatus returns a successful status carrying msg.
func NewStatus(msg string) *Status {
	return &Status{OK: true, Msg: msg}
}

// Fail marks the status as failed.
func (s *Status) Fail(msg string) {
	s.OK = false
	s.Msg = msg
}

// Failf is Fail with formatting.
func (s *Status) Failf(format string, args ...any) {
	s.Fail(fmt.Sprintf(format, args...))
}

// FailErr records err as the failure message. A nil error is a no-op.
func (s *Status) FailErr(err error) {
	if err == nil {
		return
	}
	s.Fail(err.Error())
}

// Reset marks the status successful again.
func (s *Status) Reset(msg string) {
	s.OK = true
	s.Msg = msg
}

// Err returns nil for a successful status and an error otherwise.
func (s *Status) Err() error {
	if s == nil || s.OK {
		return nil
	}
	if s.Msg == "" {
		return errors.New("scraper call failed")
	}
	return errors.New(s.Msg)
}
