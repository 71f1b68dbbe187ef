package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/lestrrat-go/jwx/jwt"
)

// principalClaims are tried in order; the first non-empty string wins.
var principalClaims = []string{"email", "cognito:username", "username", "sub"}

// Bearer verifies HS256 JWTs from the Authorization header.
type Bearer struct {
	ja     *jwtauth.JWTAuth
	issuer string
}

// NewBearer returns a Bearer resolver for tokens signed with cfg.Secret. When
// cfg.Issuer is set, tokens must carry a matching iss claim.
func NewBearer(cfg BearerConfig) (*Bearer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("new bearer: secret cannot be empty")
	}
	return &Bearer{
		ja:     jwtauth.New("HS256", []byte(cfg.Secret), nil),
		issuer: cfg.Issuer,
	}, nil
}

func (b *Bearer) Resolve(r *http.Request) (string, error) {
	tokenString := jwtauth.TokenFromHeader(r)
	if tokenString == "" {
		return "", fmt.Errorf("missing bearer token: %w", ErrUnauthorized)
	}

	token, err := b.ja.Decode(tokenString)
	if err != nil {
		return "", fmt.Errorf("decode token: %w: %w", ErrUnauthorized, err)
	}

	var opts []jwt.ValidateOption
	if b.issuer != "" {
		opts = append(opts, jwt.WithIssuer(b.issuer))
	}
	if err := jwt.Validate(token, opts...); err != nil {
		return "", fmt.Errorf("validate token: %w: %w", ErrUnauthorized, err)
	}

	for _, name := range principalClaims {
		v, ok := token.Get(name)
		if !ok {
			continue
		}
		if s, isString := v.(string); isString && s != "" {
			return s, nil
		}
	}

	return "", fmt.Errorf("token has no principal claim: %w", ErrUnauthorized)
}

// Issue mints a token for principal that expires after ttl. It is meant for local
// development and tests.
func (b *Bearer) Issue(principal string, ttl time.Duration) (string, error) {
	claims := map[string]interface{}{
		"email": principal,
		"sub":   principal,
	}
	if b.issuer != "" {
		claims["iss"] = b.issuer
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiry(claims, time.Now().Add(ttl))

	_, tokenString, err := b.ja.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return tokenString, nil
}
