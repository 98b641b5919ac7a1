package app

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app    *App
	client *http.Client
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{
		app:    app,
		client: &http.Client{Timeout: 2 * time.Second},
	}
}

// Check probes the annotator and verifier endpoints. A service that
// answers anything below 500 counts as reachable; correctness of its
// replies is the pipeline's concern.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	status.Components["annotator"] = s.probe(ctx, s.app.Config.API.AnnotatorURL, &status)
	status.Components["verifier"] = s.probe(ctx, s.app.Config.API.VerifierURL, &status)

	return status
}

func (s *HealthService) probe(ctx context.Context, url string, status *HealthStatus) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		status.Status = "degraded"
		return fmt.Sprintf("invalid endpoint: %v", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		status.Status = "degraded"
		return "unreachable"
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		status.Status = "degraded"
		return fmt.Sprintf("error (%d)", resp.StatusCode)
	}
	return "ok"
}
