package api

import (
	"context"

	"cproof/internal/core/errors"
	"cproof/internal/core/ports"
)

type AnnotatorClient struct {
	c *client
}

var _ ports.Annotator = (*AnnotatorClient)(nil)

func NewAnnotatorClient(endpoint string, opts Options) *AnnotatorClient {
	return &AnnotatorClient{
		c: newClient(endpoint, "annotator", errors.CodeAnnotator, opts),
	}
}

// Annotate submits merged source for ACSL annotation. An empty
// annotated_source in a well-formed reply is returned as-is; degraded
// annotation is the caller's decision, not a transport failure.
func (a *AnnotatorClient) Annotate(ctx context.Context, req ports.AnnotateRequest) (ports.AnnotateResponse, error) {
	var resp ports.AnnotateResponse
	if err := a.c.postJSON(ctx, req, &resp); err != nil {
		return ports.AnnotateResponse{}, err
	}
	return resp, nil
}
