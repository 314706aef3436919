// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package registrations handles candidates applying to stand for a post and
// the admin review that puts an approved candidate on the ballot.
package registrations
