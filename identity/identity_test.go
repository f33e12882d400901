package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tenantmesh/core"
)

func TestStaticVerifier(t *testing.T) {
	v := NewStaticVerifier()
	v.Register("tok-alice", "alice")

	id, err := v.Verify(context.Background(), "tok-alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", id.TenantID)

	_, err = v.Verify(context.Background(), "tok-unknown")
	assert.ErrorIs(t, err, core.ErrAuthentication)

	v.Revoke("tok-alice")
	_, err = v.Verify(context.Background(), "tok-alice")
	assert.ErrorIs(t, err, core.ErrAuthentication, "revoked credentials stop working immediately")
}

func TestHTTPVerifier_Valid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-alice", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tenant_id": "alice"}`))
	}))
	defer srv.Close()

	v := NewHTTPVerifier(srv.URL)
	id, err := v.Verify(context.Background(), "tok-alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", id.TenantID)
}

func TestHTTPVerifier_FailuresAreUniform(t *testing.T) {
	rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer rejecting.Close()

	malformed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer malformed.Close()

	unreachable := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	unreachable.Close()

	for name, endpoint := range map[string]string{
		"rejected credential": rejecting.URL,
		"malformed body":      malformed.URL,
		"transport failure":   unreachable.URL,
	} {
		t.Run(name, func(t *testing.T) {
			v := NewHTTPVerifier(endpoint)
			_, err := v.Verify(context.Background(), "tok-alice")
			assert.ErrorIs(t, err, core.ErrAuthentication,
				"every failure mode must collapse into the same authentication error")
		})
	}
}

func TestHTTPVerifier_EmptyToken(t *testing.T) {
	v := NewHTTPVerifier("http://unused.invalid")
	_, err := v.Verify(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrAuthentication)
}
