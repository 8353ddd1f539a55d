package security

import (
	"errors"
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrHashingFailed = errors.New("password hashing failed")
	ErrMismatch      = errors.New("password mismatch")
)

const DefaultMinPasswordLen = 8

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// PasswordHasher provides interface for password operations
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashedPassword, password string) error
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a new password hasher using bcrypt
func NewBcryptHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (b *bcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashingFailed, err)
	}
	return string(bytes), nil
}

func (b *bcryptHasher) Compare(hashedPassword, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		return ErrMismatch
	}
	return nil
}

// PasswordPolicy holds the strength rules applied at registration.
type PasswordPolicy struct {
	MinLength     int
	RequireLower  bool
	RequireUpper  bool
	RequireDigit  bool
	RequireSymbol bool
}

func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:    DefaultMinPasswordLen,
		RequireLower: true,
		RequireDigit: true,
	}
}

// Check returns the human readable rule violations, or nil when password passes.
func (p PasswordPolicy) Check(password string) []string {
	minLen := p.MinLength
	if minLen <= 0 {
		minLen = DefaultMinPasswordLen
	}

	var problems []string
	if len([]rune(password)) < minLen {
		problems = append(problems, fmt.Sprintf("must be at least %d characters", minLen))
	}
	if len(password) > MaxPasswordBytes {
		problems = append(problems, fmt.Sprintf("must not exceed %d bytes", MaxPasswordBytes))
	}

	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	if p.RequireLower && !lower {
		problems = append(problems, "must contain a lowercase letter")
	}
	if p.RequireUpper && !upper {
		problems = append(problems, "must contain an uppercase letter")
	}
	if p.RequireDigit && !digit {
		problems = append(problems, "must contain a digit")
	}
	if p.RequireSymbol && !symbol {
		problems = append(problems, "must contain a symbol")
	}
	return problems
}
