// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides caller identity and voting code generation.

# Principals

Every authenticated request resolves to exactly one Principal variant:

  - Admin: election administrator
  - Student: voter, identified by student profile ID
  - Candidate: candidate, identified by candidate profile ID

Each variant carries only the fields its role needs. Code that requires a
specific role uses a type assertion:

	student, ok := p.(auth.Student)
	if !ok {
		return apperr.New(apperr.KindForbidden, "Only students can cast ballots")
	}

# Bearer Tokens

Bearer tokens are HS256 JWTs carrying the role and subject:

	token, err := auth.IssueToken(auth.Student{StudentID: id}, secret, 8*time.Hour, time.Now())
	p, err := auth.ParseToken(token, secret)

Tokens without an expiry, signed with another algorithm, or naming an unknown
role are rejected. Login flows live outside this service; IssueToken is the
contract they use.

# Voting Codes

Voting codes are six-digit strings drawn uniformly from 000000-999999:

	code, err := auth.GenerateVotingCode() // e.g. "042917"

The generator does not guarantee uniqueness; the token store's unique index
does, and issuance retries on collision.
*/
package auth
