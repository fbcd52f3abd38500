package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/studyquiz/internal/ingest"
	"github.com/abhisek/studyquiz/internal/llm"
	"github.com/abhisek/studyquiz/internal/quizgen"
	"github.com/abhisek/studyquiz/internal/study"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type fileExistsBody struct {
	errorBody
	FileName string `json:"file_name"`
}

type maxReachedBody struct {
	errorBody
	TotalForSource int `json:"total_questions_for_source"`
	MaxPerSource   int `json:"max_questions_per_source"`
}

// badRequest is a malformed parameter caught in the handler itself.
type badRequest string

func (e badRequest) Error() string { return string(e) }

// respondError maps a service error onto a status and JSON body.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var (
		fileExists *study.FileExistsError
		maxReached *quizgen.MaxReachedError
	)
	switch {
	case errors.As(err, &fileExists):
		c.JSON(http.StatusConflict, fileExistsBody{
			errorBody: errorBody{Error: err.Error(), Code: "file_exists"},
			FileName:  fileExists.Name,
		})
	case errors.As(err, &maxReached):
		c.JSON(http.StatusBadRequest, maxReachedBody{
			errorBody:      errorBody{Error: err.Error(), Code: "max_reached"},
			TotalForSource: maxReached.Total,
			MaxPerSource:   maxReached.Max,
		})
	case isClientVisible(err):
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, errorBody{Error: "Internal server error."})
	}
}

// isClientVisible reports whether err carries a message meant for the caller.
func isClientVisible(err error) bool {
	var (
		bad        badRequest
		validation *study.ValidationError
		content    *ingest.ContentError
		config     *llm.ConfigError
		backend    *llm.BackendError
		empty      *llm.EmptyReplyError
		schema     *quizgen.SchemaError
	)
	return errors.As(err, &bad) ||
		errors.As(err, &validation) ||
		errors.As(err, &content) ||
		errors.As(err, &config) ||
		errors.As(err, &backend) ||
		errors.As(err, &empty) ||
		errors.As(err, &schema)
}
