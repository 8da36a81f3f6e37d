package webserver

import (
	"errors"
	"log"
	"net/http"

	"github.com/veritrust/review-verify/src/RVApi/data"
	"github.com/veritrust/review-verify/src/RVApi/pipeline"
)

// mapPipelineError translates the pipeline's error taxonomy onto HTTP.
// Conflicts report 409 so retrying callers learn the work was already done;
// anything unrecognized is a storage-level fault.
func mapPipelineError(err error) (int, string) {
	switch {
	case errors.Is(err, pipeline.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, pipeline.ErrIneligible):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, data.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, data.ErrAlreadySubmitted), errors.Is(err, data.ErrConflict):
		return http.StatusConflict, err.Error()
	default:
		log.Printf("pipeline error: %v", err)
		return http.StatusInternalServerError, "internal error"
	}
}
