// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ballot implements the ballot-casting transaction.

Cast runs the checks below in order and stops at the first failure:

 1. the caller is a student (Forbidden)
 2. an election id is given (ValidationError)
 3. the election is open (NotFound, ElectionNotActive)
 4. a token is given (ValidationError)
 5. the token is six digits (TokenFormatInvalid)
 6. selections are present and complete (ValidationError)
 7. the token resolves to this student and election, unused (TokenInvalid, TokenMismatch, TokenAlreadyUsed)
 8. one selection per post (IncompletePosts)
 9. no post selected twice (DuplicatePostSelection)
 10. every candidate is on the ballot for its post (CandidateNotOnBallot)

Steps 7 onward run inside a single database transaction together with the
writes: previous votes for the election are replaced, the token is consumed
with a compare-and-set update, and the student is flagged as having voted.
A unique-key violation at commit means a concurrent cast won; the engine
re-reads the token and reports TokenAlreadyUsed, or Conflict if the other
attempt has not committed.

Token codes are never logged.
*/
package ballot
