package bloodrequest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rokto/rokto/internal/platform/backend"
	"github.com/rokto/rokto/internal/platform/telemetry"
)

// Backend is the subset of the backend client used for submissions.
type Backend interface {
	PostJSON(ctx context.Context, path string, body any, bearer string) (*backend.Response, error)
}

type Service struct {
	backend  Backend
	notifier *Notifier
	logger   zerolog.Logger
	metrics  *telemetry.Metrics
}

// NewService creates a submission service. notifier and metrics may be nil.
func NewService(b Backend, notifier *Notifier, logger zerolog.Logger, metrics *telemetry.Metrics) *Service {
	return &Service{
		backend:  b,
		notifier: notifier,
		logger:   logger.With().Str("component", "bloodrequest").Logger(),
		metrics:  metrics,
	}
}

// Submit forwards req to the backend exactly once. It never returns an error:
// every failure mode collapses into Failure.
func (s *Service) Submit(ctx context.Context, req *BloodRequest, token string) Result {
	res := s.submit(ctx, req, token)
	switch r := res.(type) {
	case Success:
		s.metrics.Submission("success")
		s.logger.Info().Str("blood_group", req.BloodGroup).Str("urgency", req.UrgencyLevel).
			Str("district_id", req.DistrictID).Msg("blood request submitted")
		s.notifier.Submitted(ctx, req)
	case Failure:
		s.metrics.Submission("failure")
		s.logger.Warn().Str("reason", r.Reason).Msg("blood request submission failed")
	}
	return res
}

func (s *Service) submit(ctx context.Context, req *BloodRequest, token string) Result {
	resp, err := s.backend.PostJSON(ctx, backend.PathBloodRequest, req, token)
	if err != nil {
		return Failure{Reason: err.Error()}
	}
	if !resp.OK() {
		return Failure{Reason: fmt.Sprintf("backend status %d", resp.StatusCode)}
	}
	if len(resp.Body) == 0 || !json.Valid(resp.Body) {
		return Failure{Reason: "backend response is not JSON"}
	}
	return Success{Payload: json.RawMessage(resp.Body)}
}
