package api

import (
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/affectlab/affectlab-server/internal/errors"
	"github.com/affectlab/affectlab-server/internal/http/response"
)

// writeError renders err as the failure envelope on a plain chi handler.
func writeError(w http.ResponseWriter, err error, logger *slog.Logger) {
	response.HandleError(w, err, logger)
}

func tooLarge(limit int64) error {
	return domainerrors.PayloadTooLargef("file too large, maximum size is %d MB", limit>>20)
}

// isBodyTooLarge reports whether err came from a body over the MaxBytesReader limit.
func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
