package report

import (
	"encoding/json"
	"fmt"

	"cproof/internal/core/pipeline"
	"cproof/internal/core/ports"
)

// Markers bracketing the machine-readable payload so editor
// integrations can extract it from mixed terminal output.
const (
	ResultsStartMarker = "VERIFICATION_RESULTS_START"
	ResultsEndMarker   = "VERIFICATION_RESULTS_END"
)

type jsonResult struct {
	RunID        string                `json:"run_id"`
	Status       string                `json:"status"`
	Verification *ports.VerifyResponse `json:"verification,omitempty"`
	Error        *pipeline.RunError    `json:"error,omitempty"`
	ElapsedMS    int64                 `json:"elapsed_ms"`
}

// FormatJSON renders the terminal result contract wrapped in the
// start/end markers.
func FormatJSON(res pipeline.Result) (string, error) {
	payload := jsonResult{
		RunID:        res.RunID,
		Status:       res.Status.String(),
		Verification: res.Verification,
		Error:        res.Err,
		ElapsedMS:    res.Elapsed.Milliseconds(),
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return ResultsStartMarker + "\n" + string(data) + "\n" + ResultsEndMarker + "\n", nil
}
