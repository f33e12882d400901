package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hupe1980/tenantmesh/core"
)

// HTTPVerifierOptions configure the HTTP verifier.
type HTTPVerifierOptions struct {
	// Client used for introspection calls. Callers that need a request
	// timeout should bound the context; the default client carries none.
	Client *http.Client
}

// HTTPVerifier validates bearer credentials against a token introspection
// endpoint. The endpoint receives the credential in the Authorization header
// and answers {"tenant_id": "..."} on success.
//
// Transport failures and rejected credentials surface as the same
// core.ErrAuthentication so callers cannot distinguish the two.
type HTTPVerifier struct {
	endpoint string
	client   *http.Client
}

// NewHTTPVerifier creates a verifier for the given introspection endpoint.
func NewHTTPVerifier(endpoint string, optFns ...func(o *HTTPVerifierOptions)) *HTTPVerifier {
	opts := HTTPVerifierOptions{Client: http.DefaultClient}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &HTTPVerifier{endpoint: endpoint, client: opts.Client}
}

// Verify implements core.IdentityVerifier.
func (v *HTTPVerifier) Verify(ctx context.Context, bearerToken string) (core.Identity, error) {
	if bearerToken == "" {
		return core.Identity{}, fmt.Errorf("verify bearer token: %w", core.ErrAuthentication)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, nil)
	if err != nil {
		return core.Identity{}, fmt.Errorf("verify bearer token: %w", core.ErrAuthentication)
	}
	req.Header.Set("Authorization", "Bearer "+bearerToken)

	resp, err := v.client.Do(req)
	if err != nil {
		return core.Identity{}, fmt.Errorf("verify bearer token: %w", core.ErrAuthentication)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return core.Identity{}, fmt.Errorf("verify bearer token: %w", core.ErrAuthentication)
	}

	var body struct {
		TenantID string `json:"tenant_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.TenantID == "" {
		return core.Identity{}, fmt.Errorf("verify bearer token: %w", core.ErrAuthentication)
	}

	return core.Identity{TenantID: body.TenantID}, nil
}
