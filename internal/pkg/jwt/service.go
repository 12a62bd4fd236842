package jwt

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims are the fields read from a provider token. The user id travels in
// the standard "sub" claim.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`

	jwtlib.RegisteredClaims
}

func (c Claims) UserID() string {
	return strings.TrimSpace(c.Subject)
}

type Validator interface {
	ValidateToken(tokenString string) (Claims, error)
}

// HMACValidator checks HS256 tokens signed with the secret shared with the
// external auth provider. This service never issues tokens.
type HMACValidator struct {
	secret   []byte
	audience string
	leeway   time.Duration

	now func() time.Time
}

func NewHMACValidator(secret string) *HMACValidator {
	return &HMACValidator{
		secret: []byte(secret),
		leeway: 30 * time.Second,
		now:    time.Now,
	}
}

// WithAudience requires the "aud" claim to contain aud.
func (v *HMACValidator) WithAudience(aud string) *HMACValidator {
	v.audience = strings.TrimSpace(aud)
	return v
}

func (v *HMACValidator) Enabled() bool {
	return v != nil && len(v.secret) > 0
}

func (v *HMACValidator) ValidateToken(tokenString string) (Claims, error) {
	if !v.Enabled() {
		return Claims{}, ErrTokenInvalid
	}

	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithLeeway(v.leeway),
		jwtlib.WithTimeFunc(v.now),
	}
	if v.audience != "" {
		opts = append(opts, jwtlib.WithAudience(v.audience))
	}
	p := jwtlib.NewParser(opts...)

	var c Claims
	tok, err := p.ParseWithClaims(tokenString, &c, func(token *jwtlib.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if tok == nil || !tok.Valid {
		return Claims{}, ErrTokenInvalid
	}
	if c.UserID() == "" {
		return Claims{}, ErrTokenInvalid
	}

	return c, nil
}
