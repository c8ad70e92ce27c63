package httpadapter

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	var stageErr *domain.StageError
	if errors.As(err, &stageErr) {
		return http.StatusBadGateway
	}

	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrDocumentNotFound), domain.IsKind(err, domain.ErrBriefNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicErrorMessage keeps backend details out of 5xx bodies while letting
// client errors through verbatim.
func publicErrorMessage(err error, status int) string {
	var stageErr *domain.StageError
	if errors.As(err, &stageErr) {
		return fmt.Sprintf("pipeline stage %s failed", stageErr.Stage)
	}
	if status >= 500 {
		return "internal error"
	}
	return err.Error()
}
