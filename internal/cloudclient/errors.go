package cloudclient

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnauthenticated indicates the server did not accept the presented
// credentials (HTTP 401). During a verification check the caller folds this
// into "not logged in"; during login it surfaces as a failed login.
var ErrUnauthenticated = errors.New("not authenticated with Vagrant Cloud")

// ServerRejectedError indicates the server refused the request (HTTP 406)
// and returned structured error messages.
type ServerRejectedError struct {
	Messages []string
}

func (e *ServerRejectedError) Error() string {
	return "Vagrant Cloud rejected the request: " + strings.Join(e.Messages, ", ")
}

// ServerUnreachableError indicates a connection-level failure (DNS, socket)
// before any HTTP response was received.
type ServerUnreachableError struct {
	Address string
}

func (e *ServerUnreachableError) Error() string {
	return fmt.Sprintf("could not reach Vagrant Cloud at %s", e.Address)
}

// UnexpectedFailureError indicates a rejection response whose body could not
// be interpreted.
type UnexpectedFailureError struct {
	Detail string
}

func (e *UnexpectedFailureError) Error() string {
	return "unexpected failure from Vagrant Cloud: " + e.Detail
}
