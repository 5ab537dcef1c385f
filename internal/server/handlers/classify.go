package handlers

import (
	"context"
	"encoding/json"
	"errors"

	gferrors "github.com/fulmenhq/gofulmen/errors"

	"github.com/namelens/brandlens/internal/ailink"
	apperrors "github.com/namelens/brandlens/internal/errors"
	"github.com/namelens/brandlens/internal/evaluate"
	"github.com/namelens/brandlens/internal/schema"
	"github.com/namelens/brandlens/internal/store"
)

// classify maps domain errors onto API error envelopes. Evaluator failures
// are checked before ValidationError because an invalid provider reply is
// wrapped in an UpstreamError and is not the caller's fault.
func classify(ctx context.Context, err error) *gferrors.ErrorEnvelope {
	var envelope *gferrors.ErrorEnvelope
	if errors.As(err, &envelope) {
		return envelope
	}

	var alignErr *evaluate.AlignmentError
	if errors.As(err, &alignErr) {
		return apperrors.WrapExternalService(ctx, err, "evaluation provider returned scores that do not match the requested names")
	}

	var upstream *evaluate.UpstreamError
	if errors.As(err, &upstream) {
		if isTimeout(upstream.Err) {
			return apperrors.WrapTimeout(ctx, err, "evaluation provider timed out")
		}
		return apperrors.WrapExternalService(ctx, err, "evaluation provider failed")
	}

	if schema.IsValidationError(err) {
		return apperrors.WrapValidationError(ctx, err, "request failed validation")
	}

	if errors.Is(err, store.ErrNotFound) {
		return apperrors.WrapNotFound(ctx, err, "resource not found")
	}

	if isTimeout(err) {
		return apperrors.WrapTimeout(ctx, err, "request timed out")
	}

	return apperrors.WrapInternal(ctx, err, "unexpected error")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	classified := ailink.Classify(err)
	return classified != nil && classified.Code == ailink.CodeProviderTimeout
}

func jsonValid(body []byte) bool {
	return json.Valid(body)
}
