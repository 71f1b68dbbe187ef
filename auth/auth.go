// Package auth resolves the authenticated principal behind an HTTP request.
//
// Three strategies are available: htpasswd Basic auth, HS256 bearer tokens and
// AWS Signature V4 presigned URLs. Each returns the principal (a user name, an
// email or an access key); the HTTP layer turns it into a fragments.OwnerID.
package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized is returned when a request carries no valid credentials.
var ErrUnauthorized = errors.New("unauthorized")

// Strategy names accepted in Config.Strategy.
const (
	StrategyBasic  = "basic"
	StrategyBearer = "bearer"
	StrategySigV4  = "sigv4"
)

// Resolver extracts and verifies the principal of a request.
type Resolver interface {
	Resolve(r *http.Request) (string, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(r *http.Request) (string, error)

func (f ResolverFunc) Resolve(r *http.Request) (string, error) {
	return f(r)
}

// Config selects and configures one strategy.
type Config struct {
	Strategy     string       `mapstructure:"strategy" validate:"required,oneof=basic bearer sigv4"`
	HtpasswdFile string       `mapstructure:"htpasswd_file" validate:"required_if=Strategy basic"`
	Bearer       BearerConfig `mapstructure:"bearer"`
	SigV4        SigV4Config  `mapstructure:"sigv4"`
}

// BearerConfig configures HS256 token verification.
type BearerConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// SigV4Config configures presigned URL verification.
type SigV4Config struct {
	Region  string     `mapstructure:"region"`
	Service string     `mapstructure:"service"`
	Keys    KeysConfig `mapstructure:"keys"`
}

// New builds the Resolver selected by cfg.Strategy.
func New(cfg Config) (Resolver, error) {
	switch cfg.Strategy {
	case StrategyBasic:
		users, err := LoadHtpasswd(cfg.HtpasswdFile)
		if err != nil {
			return nil, fmt.Errorf("new resolver: %w", err)
		}
		return NewBasic(users), nil
	case StrategyBearer:
		b, err := NewBearer(cfg.Bearer)
		if err != nil {
			return nil, fmt.Errorf("new resolver: %w", err)
		}
		return b, nil
	case StrategySigV4:
		store, err := NewSecretStore(cfg.SigV4.Keys)
		if err != nil {
			return nil, fmt.Errorf("new resolver: %w", err)
		}
		return NewSigV4(NewSignatureVerifier(cfg.SigV4.Region, cfg.SigV4.Service, store)), nil
	default:
		return nil, fmt.Errorf("new resolver: unsupported strategy: %q", cfg.Strategy)
	}
}
