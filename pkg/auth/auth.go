// Package auth provides authentication support for HTTP requests.
//
// Credentials are configured per host, for example a GitHub token so that
// release downloads are not rate limited.
//
//go:generate mockgen -destination=./mocks/auth.go -package=mocks . Authenticator
package auth

import (
	"fmt"
	"net/http"
	"os"
	"strings"
)

// Authenticator defines the interface for applying authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request) error
	Type() Type
}

// BasicAuth represents HTTP Basic Authentication credentials.
type BasicAuth struct {
	Username string
	Password string
}

// HeaderAuth represents authentication via custom HTTP headers.
type HeaderAuth struct {
	Headers map[string]string
}

// BearerAuth represents Bearer token authentication.
type BearerAuth struct {
	Token string
}

// Type represents the type of authentication.
type Type string

// Authentication types.
const (
	BasicAuthType  Type = "basic"
	HeaderAuthType Type = "header"
	BearerAuthType Type = "bearer"
)

// Apply adds Basic Authentication headers to the HTTP request.
func (b BasicAuth) Apply(req *http.Request) error {
	req.SetBasicAuth(b.Username, b.Password)
	return nil
}

// Type returns BasicAuthType.
func (b BasicAuth) Type() Type { return BasicAuthType }

// Apply adds custom headers to the HTTP request.
func (h HeaderAuth) Apply(req *http.Request) error {
	for k, v := range h.Headers {
		req.Header.Set(k, v)
	}
	return nil
}

// Type returns HeaderAuthType.
func (h HeaderAuth) Type() Type { return HeaderAuthType }

// Apply adds a Bearer token to the Authorization header of the HTTP request.
func (b BearerAuth) Apply(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+b.Token)
	return nil
}

// Type returns BearerAuthType.
func (b BearerAuth) Type() Type { return BearerAuthType }

// Config is the configuration form of an Authenticator. Values of the form
// $NAME are read from the environment when the authenticator is built.
type Config struct {
	Type     Type              `yaml:"type"`
	Username string            `yaml:"username,omitempty"`
	Password string            `yaml:"password,omitempty"`
	Token    string            `yaml:"token,omitempty"`
	Headers  map[string]string `yaml:"headers,omitempty"`
}

// New builds the authenticator described by c.
func New(c Config) (Authenticator, error) {
	switch c.Type {
	case BasicAuthType:
		return BasicAuth{Username: expand(c.Username), Password: expand(c.Password)}, nil
	case BearerAuthType:
		if c.Token == "" {
			return nil, fmt.Errorf("bearer auth requires a token")
		}
		return BearerAuth{Token: expand(c.Token)}, nil
	case HeaderAuthType:
		headers := make(map[string]string, len(c.Headers))
		for k, v := range c.Headers {
			headers[k] = expand(v)
		}
		return HeaderAuth{Headers: headers}, nil
	default:
		return nil, fmt.Errorf("unknown auth type %q", c.Type)
	}
}

func expand(s string) string {
	if name, ok := strings.CutPrefix(s, "$"); ok {
		return os.Getenv(name)
	}
	return s
}

// Hosts maps host names to authenticators.
type Hosts map[string]Authenticator

// NewHosts builds the authenticators of every configured host.
func NewHosts(configs map[string]Config) (Hosts, error) {
	hosts := make(Hosts, len(configs))
	for host, c := range configs {
		a, err := New(c)
		if err != nil {
			return nil, fmt.Errorf("auth for %s: %w", host, err)
		}
		hosts[strings.ToLower(host)] = a
	}
	return hosts, nil
}

// Apply authenticates req when its host has credentials.
func (h Hosts) Apply(req *http.Request) error {
	if a, ok := h[strings.ToLower(req.URL.Hostname())]; ok {
		return a.Apply(req)
	}
	return nil
}
