package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cperrin88/agdaup/pkg/auth"
)

func TestBasicAuth(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		expected string
	}{
		{
			name:     "valid credentials",
			username: "user",
			password: "pass",
			expected: "Basic dXNlcjpwYXNz", // base64("user:pass")
		},
		{
			name:     "empty credentials",
			username: "",
			password: "",
			expected: "Basic Og==", // base64(":")
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", "http://example.com", nil)
			basicAuth := auth.BasicAuth{
				Username: tt.username,
				Password: tt.password,
			}

			err := basicAuth.Apply(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, req.Header.Get("Authorization"))
			assert.Equal(t, auth.BasicAuthType, basicAuth.Type())
		})
	}
}

func TestHeaderAuth(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		expect  map[string]string
	}{
		{
			name: "single header",
			headers: map[string]string{
				"X-API-Key": "test-key",
			},
			expect: map[string]string{
				"X-Api-Key": "test-key", // http.Header canonicalizes headers
			},
		},
		{
			name: "multiple headers",
			headers: map[string]string{
				"X-API-Key":    "test-key",
				"X-Client-ID":  "client-123",
				"X-API-Secret": "secret-456",
			},
			expect: map[string]string{
				"X-Api-Key":    "test-key",
				"X-Client-Id":  "client-123",
				"X-Api-Secret": "secret-456",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", "http://example.com", nil)
			headerAuth := auth.HeaderAuth{
				Headers: tt.headers,
			}

			err := headerAuth.Apply(req)
			require.NoError(t, err)

			for k, v := range tt.expect {
				assert.Equal(t, v, req.Header.Get(k))
			}
			assert.Equal(t, auth.HeaderAuthType, headerAuth.Type())
		})
	}
}

func TestBearerAuth(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		expect string
	}{
		{
			name:   "valid token",
			token:  "test-token-123",
			expect: "Bearer test-token-123",
		},
		{
			name:   "empty token",
			token:  "",
			expect: "Bearer ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", "http://example.com", nil)
			bearerAuth := auth.BearerAuth{
				Token: tt.token,
			}

			err := bearerAuth.Apply(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expect, req.Header.Get("Authorization"))
			assert.Equal(t, auth.BearerAuthType, bearerAuth.Type())
		})
	}
}

func TestNew(t *testing.T) {
	t.Setenv("AGDAUP_TEST_TOKEN", "from-env")

	tests := []struct {
		name    string
		config  auth.Config
		want    auth.Authenticator
		wantErr bool
	}{
		{
			name:   "bearer from environment",
			config: auth.Config{Type: auth.BearerAuthType, Token: "$AGDAUP_TEST_TOKEN"},
			want:   auth.BearerAuth{Token: "from-env"},
		},
		{
			name:   "basic",
			config: auth.Config{Type: auth.BasicAuthType, Username: "user", Password: "pass"},
			want:   auth.BasicAuth{Username: "user", Password: "pass"},
		},
		{
			name:   "header",
			config: auth.Config{Type: auth.HeaderAuthType, Headers: map[string]string{"X-Token": "$AGDAUP_TEST_TOKEN"}},
			want:   auth.HeaderAuth{Headers: map[string]string{"X-Token": "from-env"}},
		},
		{
			name:    "bearer without token",
			config:  auth.Config{Type: auth.BearerAuthType},
			wantErr: true,
		},
		{
			name:    "unknown type",
			config:  auth.Config{Type: "oauth"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.New(tt.config)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHosts_Apply(t *testing.T) {
	hosts, err := auth.NewHosts(map[string]auth.Config{
		"GitHub.com": {Type: auth.BearerAuthType, Token: "secret"},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "https://github.com/wenkokke/setup-agda/releases", nil)
	require.NoError(t, hosts.Apply(req))
	assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))

	other := httptest.NewRequest(http.MethodGet, "https://hackage.haskell.org/package/Agda", nil)
	require.NoError(t, hosts.Apply(other))
	assert.Empty(t, other.Header.Get("Authorization"))
}

func TestNewHosts_Invalid(t *testing.T) {
	_, err := auth.NewHosts(map[string]auth.Config{"example.com": {Type: "nope"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth for example.com")
}
