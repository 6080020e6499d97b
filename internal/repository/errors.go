package repository

import (
	"fmt"
	"time"
)

// FetchError reports that input text could not be obtained from a URL,
// bucket or upload.
type FetchError struct {
	Source     string
	StatusCode int
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	msg := "fetch " + e.Source
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// ModelCallError reports a failed or empty completion from the model API.
type ModelCallError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ModelCallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s model call failed with status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s model call failed: %v", e.Provider, e.Err)
}

func (e *ModelCallError) Unwrap() error { return e.Err }

// TimeoutError reports that the model did not answer within the configured timeout.
type TimeoutError struct {
	Provider string
	Timeout  time.Duration
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s model call timed out after %s", e.Provider, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return e.Err }
