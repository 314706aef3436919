// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a rejection so callers can react without parsing messages.
type Kind string

const (
	KindForbidden              Kind = "Forbidden"
	KindElectionNotActive      Kind = "ElectionNotActive"
	KindValidation             Kind = "ValidationError"
	KindTokenFormatInvalid     Kind = "TokenFormatInvalid"
	KindTokenInvalid           Kind = "TokenInvalid"
	KindTokenMismatch          Kind = "TokenMismatch"
	KindTokenAlreadyUsed       Kind = "TokenAlreadyUsed"
	KindIncompletePosts        Kind = "IncompletePosts"
	KindDuplicatePostSelection Kind = "DuplicatePostSelection"
	KindCandidateNotOnBallot   Kind = "CandidateNotOnBallot"
	KindNotFound               Kind = "NotFound"
	KindConflict               Kind = "Conflict"
	KindInternal               Kind = "Internal"
)

// Error is a classified failure carrying a message safe to show to the user.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a classified error that keeps the underlying cause
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
// Unclassified errors are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as kind
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// MessageOf returns the user-facing message for err
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "Something went wrong. Please try again."
}

// Status maps a kind to its HTTP status code
func Status(kind Kind) int {
	switch kind {
	case KindValidation,
		KindTokenFormatInvalid,
		KindIncompletePosts,
		KindDuplicatePostSelection,
		KindTokenAlreadyUsed,
		KindElectionNotActive:
		return http.StatusBadRequest
	case KindForbidden, KindTokenMismatch:
		return http.StatusForbidden
	case KindTokenInvalid, KindCandidateNotOnBallot, KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
