package vocab

import (
	"errors"
	"fmt"
	"net"
)

var (
	// ErrCancelled means the user dismissed a prompt; it is never reported to the user
	ErrCancelled = errors.New("cancelled by user")
	// ErrInvalidCredentials means the remote service rejected the username/password pair
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNetworkUnavailable means the remote service could not be reached
	ErrNetworkUnavailable = errors.New("network unavailable")
	// ErrModelDeclined means the user refused to create the note type
	ErrModelDeclined = errors.New("note type creation declined")
)

// AuthError is returned by Gate.Authenticate. Kind is ErrInvalidCredentials or ErrNetworkUnavailable.
type AuthError struct {
	Kind error
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *AuthError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// classifyAuthError maps a login failure onto the AuthError taxonomy
func classifyAuthError(err error) error {
	if errors.Is(err, ErrInvalidCredentials) {
		return &AuthError{Kind: ErrInvalidCredentials, Err: err}
	}
	var netErr net.Error
	if errors.Is(err, ErrNetworkUnavailable) || errors.As(err, &netErr) {
		return &AuthError{Kind: ErrNetworkUnavailable, Err: err}
	}
	return fmt.Errorf("failed to log in: %w", err)
}
