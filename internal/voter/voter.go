package voter

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ID is the opaque identifier of a voter registered on this device.
type ID string

// Empty reports whether the identifier carries no value after trimming whitespace.
func (id ID) Empty() bool {
	return strings.TrimSpace(string(id)) == ""
}

// Token is an opaque pre-verification credential issued by the verification service.
type Token string

// Empty reports whether the token carries no value.
func (t Token) Empty() bool {
	return t == ""
}

// Masked returns a loggable representation that reveals only the last four characters.
func (t Token) Masked() string {
	if len(t) <= 4 {
		return strings.Repeat("*", len(t))
	}
	return strings.Repeat("*", len(t)-4) + string(t[len(t)-4:])
}

// Status is the state of a voter on the verification service.
type Status string

const (
	StatusActive      Status = "ACTIVE"
	StatusPreVerified Status = "PRE_VERIFIED"
	StatusVerified    Status = "VERIFIED"
	StatusVoted       Status = "VOTED"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPreVerified, StatusVerified, StatusVoted:
		return true
	default:
		return false
	}
}

// TokenResponse is the verification service's answer to a token request.
// Fields other than token are ignored.
type TokenResponse struct {
	Token Token `json:"token" validate:"required"`
}

var validate = validator.New()

// Validate fails if the response carries no token.
func (r *TokenResponse) Validate() error {
	if r == nil {
		return fmt.Errorf("missing token response")
	}
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid token response: %w", err)
	}
	return nil
}
