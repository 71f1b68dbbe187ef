package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/sagarc03/fragments"
	"github.com/sagarc03/fragments/auth"
	fraghttp "github.com/sagarc03/fragments/http"
)

func ownerEcho(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, ok := fraghttp.OwnerFromContext(r.Context())
		assert.True(t, ok)
		_, _ = w.Write([]byte(owner))
	})
}

func TestAuthMiddleware_StoresOwner(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	assert.NoError(t, err)
	basic := auth.NewBasic(map[string][]byte{"user1@email.com": hash})

	wrapped := fraghttp.AuthMiddleware(basic)(ownerEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/v1/fragments", nil)
	req.SetBasicAuth("user1@email.com", "password1")
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "11d4c22e42c8f61feaba154683dea407b101cfd90987dda9e342843263ca420a", rec.Body.String())
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})

	tests := []struct {
		name     string
		resolver auth.Resolver
	}{
		{name: "nil resolver"},
		{name: "resolver error", resolver: auth.ResolverFunc(func(*http.Request) (string, error) {
			return "", auth.ErrUnauthorized
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			fraghttp.AuthMiddleware(tt.resolver)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "unauthorized")
		})
	}
}

func TestOwnerFromContext(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := fraghttp.OwnerFromContext(req.Context())
	assert.False(t, ok)

	ctx := fraghttp.WithOwner(req.Context(), fragments.OwnerID("abc"))
	owner, ok := fraghttp.OwnerFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, fragments.OwnerID("abc"), owner)

	_, ok = fraghttp.OwnerFromContext(fraghttp.WithOwner(req.Context(), ""))
	assert.False(t, ok)
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	t.Parallel()

	wrapped := fraghttp.RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}
