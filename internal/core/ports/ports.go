package ports

import "context"

// AnnotateRequest carries the merged source to the annotation service.
type AnnotateRequest struct {
	Source string `json:"source"`
}

// AnnotateResponse is the annotation service reply. An empty
// AnnotatedSource is a legal degraded response; annotation is
// best-effort and its absence only limits verification precision.
type AnnotateResponse struct {
	AnnotatedSource string `json:"annotated_source"`
}

// VerifyRequest carries the annotated source to the verification service.
type VerifyRequest struct {
	AnnotatedSource string `json:"annotated_source"`
}

// VerifyError is one diagnostic from the verifier. Line is 1-based
// against the submitted text; zero means absent. File, when set by the
// pipeline, names the original project file the line maps back to.
type VerifyError struct {
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	File    string `json:"file,omitempty"`
}

// VerifyResponse is the verification outcome. Verified=false with
// populated Errors is a successful call carrying a negative result.
type VerifyResponse struct {
	Verified bool          `json:"verified"`
	Errors   []VerifyError `json:"errors"`
}

// Annotator is the external ACSL annotation service, consumed as a
// black box. Transport failures and malformed replies surface as
// ANNOTATOR_ERROR domain errors.
type Annotator interface {
	Annotate(ctx context.Context, req AnnotateRequest) (AnnotateResponse, error)
}

// Verifier is the external formal verification service. Transport
// failures and malformed replies surface as VERIFIER_ERROR domain errors.
type Verifier interface {
	Verify(ctx context.Context, req VerifyRequest) (VerifyResponse, error)
}
