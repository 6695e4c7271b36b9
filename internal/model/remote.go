package model

import "fmt"

// RemoteError is a non-2xx response from the remote restaurant API.
type RemoteError struct {
	StatusCode int
	Code       string
	Message    string
	Detail     string
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("remote API returned %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("remote API returned %d: %s", e.StatusCode, e.Message)
}

// NetworkError is a transport failure talking to the remote API.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// MalformedResponseError is a 2xx response whose body could not be used.
// The remote API may already have applied the request.
type MalformedResponseError struct {
	Op  string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: unusable response: %v", e.Op, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
