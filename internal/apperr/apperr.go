// Package apperr maps failures at each stage boundary to a fixed set of
// domain error codes with user-facing messages.
package apperr

import (
	"errors"
	"fmt"
)

// Code identifies a domain failure.
type Code string

const (
	CodeGetUser                Code = "ERROR_GET_DISCORD_USER"
	CodeGetGuilds              Code = "ERROR_GET_DISCORD_GUILDS"
	CodeMapUserData            Code = "ERROR_MAP_USER_DATA"
	CodeGetAccess              Code = "ERROR_GET_ACCESS"
	CodeGetCreds               Code = "ERROR_GET_DISCORD_CREDS"
	CodeGetEmojis              Code = "ERROR_GETTING_EMOJIS"
	CodeGetMessages            Code = "ERROR_GETTING_MESSAGES"
	CodeGetChannels            Code = "ERROR_GETTING_CHANNELS"
	CodeTokenValidation        Code = "ERROR_VALIDATING_TOKEN"
	CodeCredentialsFromStorage Code = "ERROR_GETTING_CREDENTIALS_FROM_STORAGE"
	CodeBingoCreate            Code = "ERROR_CREATING_BINGO_TABLE"
	CodeBingoRequest           Code = "ERROR_REQUESTING_BINGO_TABLE"
	CodeTokenToUser            Code = "ERROR_TOKEN_TO_USER"
)

// CodeInvalidParams is reported for requests rejected before any stage runs.
// It is not part of the domain table.
const CodeInvalidParams Code = "INVALID_PARAMS"

var messages = map[Code]string{
	CodeGetUser:                "Error getting user from Discord",
	CodeGetGuilds:              "Error getting guilds from Discord",
	CodeMapUserData:            "Error mapping user data",
	CodeGetAccess:              "Error getting user access",
	CodeGetCreds:               "Error getting Discord credentials",
	CodeGetEmojis:              "Error getting emojis",
	CodeGetMessages:            "Error getting messages",
	CodeGetChannels:            "Error getting channels",
	CodeTokenValidation:        "Error validating token",
	CodeCredentialsFromStorage: "Error getting credentials from storage",
	CodeBingoCreate:            "Error creating bingo table",
	CodeBingoRequest:           "Error requesting bingo table",
	CodeTokenToUser:            "Error getting user from token",
}

// Codes returns every domain code in the table.
func Codes() []Code {
	codes := make([]Code, 0, len(messages))
	for c := range messages {
		codes = append(codes, c)
	}
	return codes
}

// Lookup returns the user-facing message for a code.
func Lookup(c Code) (string, bool) {
	m, ok := messages[c]
	return m, ok
}

// Error is a domain failure. Only Code and Message reach callers; the cause
// is kept for logs and errors.Is/As.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Cause returns the underlying failure, for logging.
func (e *Error) Cause() error {
	return e.cause
}

// Wrap converts err into the domain error for code. An err that already is a
// domain error is returned unchanged so the innermost stage's code wins.
func Wrap(code Code, err error) *Error {
	var existing *Error
	if errors.As(err, &existing) {
		return existing
	}
	msg, ok := messages[code]
	if !ok {
		panic(fmt.Sprintf("apperr: unknown code %q", code))
	}
	return &Error{Code: code, Message: msg, cause: err}
}

// As extracts a domain error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// InvalidParams reports a request that failed parameter validation.
type InvalidParams struct {
	Field  string
	Reason string
}

func (e *InvalidParams) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Invalid is shorthand for a parameter validation failure.
func Invalid(field, reason string) error {
	return &InvalidParams{Field: field, Reason: reason}
}
