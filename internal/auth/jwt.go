package auth

import (
	"errors"
	"time"

	"consult-signaling/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrMissingToken = errors.New("auth: missing token")
)

type Manager struct {
	secret    []byte
	issuer    string
	audience  string
	accessTTL time.Duration
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	return &Manager{
		secret:    []byte(cfg.JWTSecret),
		issuer:    cfg.JWTIssuer,
		audience:  cfg.JWTAudience,
		accessTTL: ttl,
	}, nil
}

// IssueAccess signs an access token for id.
func (m *Manager) IssueAccess(now time.Time, id Identity) (string, error) {
	if id.Anonymous() || id.Role == "" {
		return "", errors.New("auth: user id and role are required")
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   id.ID,
			Audience:  audienceOrNil(m.audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			ID:        uuid.NewString(),
		},
		UserID:    id.ID,
		Role:      id.Role,
		Name:      id.Name,
		TokenType: TokenTypeAccess,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

// Verify parses and validates an access token.
func (m *Manager) Verify(tokenString string, now time.Time) (Claims, error) {
	if tokenString == "" {
		return Claims{}, ErrMissingToken
	}

	var claims Claims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if _, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	}); err != nil {
		return Claims{}, errors.Join(ErrInvalidToken, err)
	}

	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30 * time.Second), // clock skew tolerance
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	if err := jwt.NewValidator(opts...).Validate(claims.RegisteredClaims); err != nil {
		return Claims{}, errors.Join(ErrInvalidToken, err)
	}

	if claims.TokenType != TokenTypeAccess {
		return Claims{}, errors.Join(ErrInvalidToken, errors.New("token_type mismatch"))
	}
	if claims.UserID == "" {
		return Claims{}, errors.Join(ErrInvalidToken, errors.New("user_id missing"))
	}
	if claims.Role == "" {
		return Claims{}, errors.Join(ErrInvalidToken, errors.New("role missing"))
	}
	return claims, nil
}

// Resolve verifies tokenString against the current time and returns the identity it carries.
func (m *Manager) Resolve(tokenString string) (Identity, error) {
	claims, err := m.Verify(tokenString, time.Now())
	if err != nil {
		return Identity{}, err
	}
	return claims.Identity(), nil
}

func audienceOrNil(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}
