// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package gate decides whether an election currently accepts token requests
// and ballots: it must be active and now must fall inside [startDate, endDate].
package gate
