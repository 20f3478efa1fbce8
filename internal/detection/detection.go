// Package detection is the boundary to the accident-detection model.
//
// The real model lives elsewhere; Static stands in for it with a configured
// verdict so the dispatch flow can be exercised end to end.
package detection

import (
	"context"

	domain "github.com/oshokin/accirescue/internal/domain/alert"
	"github.com/oshokin/accirescue/internal/logger"
)

// Service evaluates a captured frame and reports whether it shows an accident.
type Service interface {
	Evaluate(ctx context.Context, frame []byte) (bool, error)
}

// Static returns the same verdict for every non-empty frame.
type Static struct {
	verdict bool
}

// NewStatic creates a detector with a fixed verdict.
func NewStatic(verdict bool) *Static {
	return &Static{
		verdict: verdict,
	}
}

// Evaluate implements Service.
func (s *Static) Evaluate(ctx context.Context, frame []byte) (bool, error) {
	if len(frame) == 0 {
		return false, domain.NewValidationError("frame", "frame is empty")
	}

	if err := ctx.Err(); err != nil {
		return false, err
	}

	logger.DebugKV(ctx, "Frame evaluated", "bytes", len(frame), "accident", s.verdict)

	return s.verdict, nil
}
