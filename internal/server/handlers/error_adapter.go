package handlers

import (
	"net/http"

	apperrors "github.com/namelens/brandlens/internal/errors"
)

// ErrorResponder writes an error envelope for a failed API request.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, err error)

var errorResponder ErrorResponder = apperrors.RespondWithError

// SetHTTPErrorResponder installs the server's responder, which adds the
// evaluation id to error details. nil restores apperrors.RespondWithError.
func SetHTTPErrorResponder(responder ErrorResponder) {
	if responder == nil {
		responder = apperrors.RespondWithError
	}
	errorResponder = responder
}

// respondWithError classifies err into an API envelope before handing it to
// the installed responder, so evaluator, validation and store errors map to
// their status codes wherever they are raised.
func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	errorResponder(w, r, classify(r.Context(), err))
}
