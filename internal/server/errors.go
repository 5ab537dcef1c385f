package server

import (
	"net/http"

	gferrors "github.com/fulmenhq/gofulmen/errors"

	apperrors "github.com/namelens/brandlens/internal/errors"
	servermw "github.com/namelens/brandlens/internal/server/middleware"
)

// HandleError writes the error envelope for every failed request. When the
// request concerned a stored or freshly created evaluation, its id is added
// to the response details as evaluation_id.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	envelope := apperrors.EnsureEnvelope(err)
	if r != nil {
		envelope = withEvaluationID(envelope, servermw.EvaluationID(r.Context()))
	}
	apperrors.RespondWithEnvelope(w, r, envelope)
}

func withEvaluationID(envelope *gferrors.ErrorEnvelope, id string) *gferrors.ErrorEnvelope {
	if envelope == nil || id == "" {
		return envelope
	}
	if _, exists := envelope.Context["evaluation_id"]; exists {
		return envelope
	}
	merged := make(map[string]interface{}, len(envelope.Context)+1)
	for key, value := range envelope.Context {
		merged[key] = value
	}
	merged["evaluation_id"] = id
	updated, _ := envelope.WithContext(merged)
	return updated
}
