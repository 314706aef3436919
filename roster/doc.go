// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package roster resolves an election's posts and the candidates placed on
them.

The candidate_on_ballot table is the allow-list the ballot engine checks every
selection against: a candidate may only be chosen for a post in an election if
that exact triple has been placed by an administrator.

Posts may restrict eligibility to a set of grades. Matching is
case-insensitive after trimming, and an empty list means any grade.

Results is the read contract for vote tallies: one row per placed candidate,
including candidates with zero votes.
*/
package roster
