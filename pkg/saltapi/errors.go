// pkg/saltapi/errors.go

package saltapi

import (
	"errors"

	cerr "github.com/cockroachdb/errors"
)

// Reason identifies why a manager operation was rejected.
type Reason int

const (
	NoAuthData Reason = iota + 1
	NoTokenToClear
	TokenHasExpired
	TokenIsStillValid
	NoCommandSpecified
	EmptyCommandListSpecified
	UnsupportedCommandType
)

var reasonMessages = map[Reason]string{
	NoAuthData:                "No authentication data provided. Cannot open a session.",
	NoTokenToClear:            "There are no open sessions. No token to clear.",
	TokenHasExpired:           "The token has expired.",
	TokenIsStillValid:         "The token is still valid. Force clearing of the token if you really want not to log out.",
	NoCommandSpecified:        "An empty command has been specified. Nothing to send.",
	EmptyCommandListSpecified: "An empty command list has been specified. Nothing to send.",
	UnsupportedCommandType:    "The command cannot be interpreted as requested. Nothing to send.",
}

func (r Reason) String() string {
	if msg, ok := reasonMessages[r]; ok {
		return msg
	}
	return "unknown reason"
}

// LogicError reports a call made in a state where it cannot succeed,
// such as logging out without a token.
type LogicError struct {
	Reason Reason
}

func (e *LogicError) Error() string {
	return e.Reason.String()
}

// InvalidArgumentError reports a malformed command or command list.
type InvalidArgumentError struct {
	Reason Reason
}

func (e *InvalidArgumentError) Error() string {
	return e.Reason.String()
}

func newLogicError(r Reason) error {
	return cerr.WithStack(&LogicError{Reason: r})
}

func newInvalidArgument(r Reason) error {
	return cerr.WithStack(&InvalidArgumentError{Reason: r})
}

// ReasonOf extracts the Reason carried by a LogicError or InvalidArgumentError.
func ReasonOf(err error) (Reason, bool) {
	var le *LogicError
	if errors.As(err, &le) {
		return le.Reason, true
	}
	var ia *InvalidArgumentError
	if errors.As(err, &ia) {
		return ia.Reason, true
	}
	return 0, false
}

// IsReason reports whether err carries the given Reason.
func IsReason(err error, r Reason) bool {
	got, ok := ReasonOf(err)
	return ok && got == r
}
