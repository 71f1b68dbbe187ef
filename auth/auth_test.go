package auth_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sagarc03/fragments/auth"
)

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func bcryptHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestNew(t *testing.T) {
	t.Parallel()

	htpasswd := writeTestFile(t, ".htpasswd", "user1@email.com:"+bcryptHash(t, "password1")+"\n")

	tests := []struct {
		name    string
		cfg     auth.Config
		want    any
		wantErr string
	}{
		{
			name: "basic",
			cfg:  auth.Config{Strategy: auth.StrategyBasic, HtpasswdFile: htpasswd},
			want: &auth.Basic{},
		},
		{
			name: "bearer",
			cfg:  auth.Config{Strategy: auth.StrategyBearer, Bearer: auth.BearerConfig{Secret: "s3cret"}},
			want: &auth.Bearer{},
		},
		{
			name: "sigv4",
			cfg: auth.Config{Strategy: auth.StrategySigV4, SigV4: auth.SigV4Config{
				Region:  "us-east-1",
				Service: "s3",
				Keys:    auth.KeysConfig{Inline: []auth.KeyPair{{AccessKey: "AKIATEST", SecretKey: "testsecret"}}},
			}},
			want: &auth.SigV4{},
		},
		{
			name:    "missing htpasswd file",
			cfg:     auth.Config{Strategy: auth.StrategyBasic, HtpasswdFile: "/nonexistent/.htpasswd"},
			wantErr: "read htpasswd",
		},
		{
			name:    "bearer without secret",
			cfg:     auth.Config{Strategy: auth.StrategyBearer},
			wantErr: "secret cannot be empty",
		},
		{
			name:    "unknown strategy",
			cfg:     auth.Config{Strategy: "oauth"},
			wantErr: "unsupported strategy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := auth.New(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
		})
	}
}

func TestResolverFunc(t *testing.T) {
	t.Parallel()

	var r auth.Resolver = auth.ResolverFunc(func(*http.Request) (string, error) {
		return "someone", nil
	})

	got, err := r.Resolve(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, "someone", got)
}

func TestParseHtpasswd(t *testing.T) {
	t.Parallel()

	hash := bcryptHash(t, "pw")

	t.Run("skips comments and blank lines", func(t *testing.T) {
		t.Parallel()

		users, err := auth.ParseHtpasswd(strings.NewReader("# users\n\nalice:" + hash + "\n  bob:" + hash + "  \n"))
		require.NoError(t, err)
		assert.Len(t, users, 2)
		assert.Contains(t, users, "alice")
		assert.Contains(t, users, "bob")
	})

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "missing separator", content: "alice\n", wantErr: "line 1: expected user:hash"},
		{name: "empty hash", content: "alice:\n", wantErr: "line 1: expected user:hash"},
		{name: "apr1 hash", content: "alice:$apr1$abc$def\n", wantErr: "not a bcrypt hash"},
		{name: "sha hash", content: "alice:" + hash + "\nbob:{SHA}W6ph5Mm5Pz8GgiULbPgzG37mj9g=\n", wantErr: "line 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := auth.ParseHtpasswd(strings.NewReader(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBasic_Resolve(t *testing.T) {
	t.Parallel()

	users, err := auth.ParseHtpasswd(strings.NewReader("user1@email.com:" + bcryptHash(t, "password1") + "\n"))
	require.NoError(t, err)
	basic := auth.NewBasic(users)

	tests := []struct {
		name     string
		setAuth  bool
		user     string
		password string
		want     string
		wantErr  string
	}{
		{name: "valid credentials", setAuth: true, user: "user1@email.com", password: "password1", want: "user1@email.com"},
		{name: "wrong password", setAuth: true, user: "user1@email.com", password: "nope", wantErr: "password mismatch"},
		{name: "unknown user", setAuth: true, user: "ghost", password: "password1", wantErr: "unknown user"},
		{name: "no header", wantErr: "missing basic credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/v1/fragments", nil)
			if tt.setAuth {
				req.SetBasicAuth(tt.user, tt.password)
			}

			got, err := basic.Resolve(req)
			if tt.wantErr != "" {
				require.ErrorIs(t, err, auth.ErrUnauthorized)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadHtpasswd(t *testing.T) {
	t.Parallel()

	path := writeTestFile(t, ".htpasswd", "a:"+bcryptHash(t, "x")+"\n")

	users, err := auth.LoadHtpasswd(path)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
