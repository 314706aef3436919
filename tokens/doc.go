// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tokens manages one-time voting tokens.

A token authorizes one student to cast one ballot in one election. At most one
token exists per (student, election) pair and its code never changes once
issued. Codes are six zero-padded digits and are unique across all tokens.

# Issuance

	store := tokens.NewStore(conn)
	tok, created, err := store.IssueIfAbsent(ctx, studentID, electionID)

Issuance is insert-if-absent on the (student, election) unique key, so
concurrent first requests for the same pair all observe the same token. A
collision on the code itself regenerates, up to MaxIssueAttempts times.

FanOutElection and FanOutStudent issue through the same primitive when an
election or student is created.

# Consumption

Inside the cast transaction:

	store := tokens.NewStore(tx)
	tok, err := store.LookupForCast(ctx, code, studentID, electionID)
	...
	err = store.MarkUsed(ctx, tok.ID, now)

MarkUsed is compare-and-set: only one caller can move a token from unused to
used; the loser gets TokenAlreadyUsed.

Token codes are credentials. Never log them.
*/
package tokens
