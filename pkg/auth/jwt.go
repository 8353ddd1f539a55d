package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-rbac/internal/policy"
)

var (
	ErrTokenMissing   = errors.New("token missing")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("token invalid")
)

const DefaultTokenExpiry = 24 * time.Hour

// Claims is the token payload.
type Claims struct {
	UserID int64       `json:"user_id"`
	Role   policy.Role `json:"role"`
	jwt.RegisteredClaims
}

// Principal returns the caller identity carried by the claims.
func (c *Claims) Principal() policy.Principal {
	return policy.Principal{ID: c.UserID, Role: c.Role}
}

type JWTService interface {
	Issue(p policy.Principal) (token string, expiresAt time.Time, err error)
	Verify(token string) (*Claims, error)
}

type Option func(*jwtService)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *jwtService) {
		s.now = now
	}
}

func WithIssuer(issuer string) Option {
	return func(s *jwtService) {
		s.issuer = issuer
	}
}

type jwtService struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

// NewJWTService signs HS256 tokens with secret. A non-positive expiry falls back to 24h.
func NewJWTService(secret string, expiry time.Duration, opts ...Option) (JWTService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	s := &jwtService{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *jwtService) Issue(p policy.Principal) (string, time.Time, error) {
	if p.ID <= 0 || !p.Role.Valid() {
		return "", time.Time{}, fmt.Errorf("cannot issue token for principal %d with role %q", p.ID, p.Role)
	}

	now := s.now()
	expiresAt := now.Add(s.expiry)
	claims := Claims{
		UserID: p.ID,
		Role:   p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(p.ID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiresAt, nil
}

func (s *jwtService) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	token, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid || claims.UserID <= 0 || !claims.Role.Valid() {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
