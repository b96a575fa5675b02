package odoo

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthentication is returned when the login handshake failed or no
	// session is held. Calls short-circuit with it until Authenticate succeeds.
	ErrAuthentication = errors.New("odoo authentication failed")
	// ErrRemoteCall matches every *RemoteError.
	ErrRemoteCall = errors.New("odoo remote call failed")
)

// RemoteError describes a failed JSON-RPC round trip: transport failure,
// non-2xx status, an error member, or a response without a result.
type RemoteError struct {
	Model      string
	Method     string
	StatusCode int
	Fault      string
	Message    string
}

func (e *RemoteError) Error() string {
	target := "jsonrpc"
	if e.Model != "" {
		target = e.Model + "." + e.Method
	}
	if e.Fault != "" {
		return fmt.Sprintf("odoo %s: %s (%s)", target, e.Message, e.Fault)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("odoo %s: status %d: %s", target, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("odoo %s: %s", target, e.Message)
}

func (e *RemoteError) Is(target error) bool {
	return target == ErrRemoteCall
}
