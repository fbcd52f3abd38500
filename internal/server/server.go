// Package server exposes the study service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/studyquiz/internal/logging"
	"github.com/abhisek/studyquiz/internal/study"
)

// Config holds the HTTP settings.
type Config struct {
	Addr        string
	NotesDir    string
	CORSOrigins []string
	// MaxUploadBytes bounds multipart bodies. Zero uses 32 MiB.
	MaxUploadBytes int64
}

// Server is the HTTP front end.
type Server struct {
	Engine *gin.Engine
	cfg    Config
	log    *logging.Logger
}

// New builds the router. log may be nil.
func New(cfg Config, svc *study.Service, log *logging.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
	h := &handler{svc: svc, notesDir: cfg.NotesDir, maxUpload: cfg.MaxUploadBytes, log: log.With("component", "http")}
	return &Server{Engine: newRouter(cfg, h, log), cfg: cfg, log: log}
}

func newRouter(cfg Config, h *handler, log *logging.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(CORS(cfg.CORSOrigins))
	r.MaxMultipartMemory = cfg.MaxUploadBytes

	r.GET("/", h.root)

	api := r.Group("/api")
	{
		api.GET("/health", h.health)

		// Generation
		api.POST("/questions", h.generateFromDir)
		api.POST("/questions/upload", h.generateFromUpload)
		api.POST("/questions/more", h.moreQuestions)

		// Answers
		api.POST("/wrong-answer", h.recordWrongAnswer)
		api.GET("/wrong-answers", h.listWrongAnswers)
		api.GET("/error-collections", h.listErrorCollections)
		api.DELETE("/error-collections", h.deleteErrorCollection)

		// Stored questions
		api.GET("/favorite-collections", h.listQuestionCollections)
		api.DELETE("/favorite-collections", h.deleteQuestionCollection)
		api.GET("/generated-questions", h.listGeneratedQuestions)
	}

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
