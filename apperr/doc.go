// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package apperr defines the error kinds returned by the election core.

Every rejection the core produces is an *Error with a Kind and a plain-language
message that tells the student what to fix ("already used" vs "does not belong
to you" vs "invalid format"):

	return apperr.New(apperr.KindTokenAlreadyUsed, "This voting token has already been used")

Handlers map kinds to status codes with Status and never inspect messages:

	kind := apperr.KindOf(err)
	w.WriteHeader(apperr.Status(kind))

Errors that carry no kind are treated as Internal; their message is replaced
with a generic one by MessageOf.
*/
package apperr
