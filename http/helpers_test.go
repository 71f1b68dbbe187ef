package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sagarc03/fragments"
	"github.com/sagarc03/fragments/auth"
	fraghttp "github.com/sagarc03/fragments/http"
	"github.com/sagarc03/fragments/kv/memory"
)

// basicUserResolver trusts the Basic auth user name without checking a password.
var basicUserResolver = auth.ResolverFunc(func(r *http.Request) (string, error) {
	user, _, ok := r.BasicAuth()
	if !ok {
		return "", auth.ErrUnauthorized
	}
	return user, nil
})

type testServer struct {
	handler http.Handler
	manager *fragments.Manager
}

func newTestServer(t *testing.T, mutate ...func(*fraghttp.HandlerConfig)) *testServer {
	t.Helper()

	manager := fragments.NewManager(memory.New(), memory.New(), nil)
	cfg := &fraghttp.HandlerConfig{
		APIURL:   "http://localhost:8080",
		Version:  "test",
		Resolver: basicUserResolver,
	}
	for _, m := range mutate {
		m(cfg)
	}

	return &testServer{
		handler: fraghttp.NewHandler(cfg, manager).Router(),
		manager: manager,
	}
}

func (s *testServer) do(t *testing.T, method, target, user, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if user != "" {
		req.SetBasicAuth(user, "unused")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) create(t *testing.T, user, contentType, body string) fragments.Fragment {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/v1/fragments", user, contentType, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Status   string             `json:"status"`
		Fragment fragments.Fragment `json:"fragment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Fragment
}

type errorEnvelope struct {
	Status string `json:"status"`
	Error  struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()

	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}
