// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/danielhkuo/campus-ballot/models"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrUnknownRole  = errors.New("unknown role")
)

// Principal is the authenticated caller. It is one of Admin, Student or
// Candidate and is resolved once, at the authentication boundary.
type Principal interface {
	Role() models.Role
	Subject() string
	principal()
}

type Admin struct {
	Username string
}

type Student struct {
	StudentID string
}

type Candidate struct {
	CandidateID string
}

func (Admin) Role() models.Role     { return models.RoleAdmin }
func (Student) Role() models.Role   { return models.RoleStudent }
func (Candidate) Role() models.Role { return models.RoleCandidate }

func (a Admin) Subject() string     { return a.Username }
func (s Student) Subject() string   { return s.StudentID }
func (c Candidate) Subject() string { return c.CandidateID }

func (Admin) principal()     {}
func (Student) principal()   {}
func (Candidate) principal() {}

// Claims is the JWT payload
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs a bearer token for p valid for ttl
func IssueToken(p Principal, secret string, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		Role: string(p.Role()),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Subject(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a bearer token and resolves its principal
func ParseToken(raw, secret string) (Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	switch models.Role(claims.Role) {
	case models.RoleAdmin:
		return Admin{Username: claims.Subject}, nil
	case models.RoleStudent:
		return Student{StudentID: claims.Subject}, nil
	case models.RoleCandidate:
		return Candidate{CandidateID: claims.Subject}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownRole, claims.Role)
}

// GenerateVotingCode returns a uniformly random six-digit, zero-padded code.
// Uniqueness is enforced by the token store, not here.
func GenerateVotingCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate voting code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
