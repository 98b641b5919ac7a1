package api

import (
	"context"
	"strings"

	"cproof/internal/core/errors"
	"cproof/internal/core/ports"
)

type VerifierClient struct {
	c *client
}

var _ ports.Verifier = (*VerifierClient)(nil)

func NewVerifierClient(endpoint string, opts Options) *VerifierClient {
	return &VerifierClient{
		c: newClient(endpoint, "verifier", errors.CodeVerifier, opts),
	}
}

// Verify submits annotated source and validates the response shape at
// the boundary. verified=false with populated errors is a well-formed
// reply; only structurally broken responses become VERIFIER_ERROR.
func (v *VerifierClient) Verify(ctx context.Context, req ports.VerifyRequest) (ports.VerifyResponse, error) {
	var resp ports.VerifyResponse
	if err := v.c.postJSON(ctx, req, &resp); err != nil {
		return ports.VerifyResponse{}, err
	}

	for i, e := range resp.Errors {
		if strings.TrimSpace(e.Message) == "" {
			return ports.VerifyResponse{}, v.c.fail(
				errors.Newf(errors.CodeVerifier, "malformed response: errors[%d] has no message", i))
		}
		if e.Line < 0 {
			return ports.VerifyResponse{}, v.c.fail(
				errors.Newf(errors.CodeVerifier, "malformed response: errors[%d] has negative line %d", i, e.Line))
		}
	}
	return resp, nil
}
