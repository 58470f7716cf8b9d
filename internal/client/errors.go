package client

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the client.
var (
	ErrBaseURL      = errors.New("base url is required")
	ErrDecode       = errors.New("decode response")
	ErrJobNotDone   = errors.New("job did not finish")
	ErrInvalidTeams = errors.New("report violates team constraints")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status   int    `json:"-"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("http %d %s: %s", e.Status, e.Code, e.Message)
}
