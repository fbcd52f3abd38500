// Package study ties ingestion, question generation and persistence
// together for the HTTP and CLI front ends.
package study

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/studyquiz/internal/ingest"
	"github.com/abhisek/studyquiz/internal/llm"
	"github.com/abhisek/studyquiz/internal/logging"
	"github.com/abhisek/studyquiz/internal/quizgen"
	"github.com/abhisek/studyquiz/internal/store"
)

const (
	MinQuestionCount = 1
	MaxQuestionCount = 30
)

// Backend dispatches generation calls and knows each tier's default model.
// *llm.Dispatcher satisfies it.
type Backend interface {
	quizgen.Dispatcher
	DefaultModel(tier llm.Tier) string
}

// Result is the outcome of one generation.
type Result struct {
	Questions   []quizgen.Question
	SourceFiles []string
	Model       string
	Tier        llm.Tier
	NotesDir    string
	// TotalForSource is the stored count for the source after this batch.
	// It is zero for directory generations.
	TotalForSource int
	MaxPerSource   int
}

// Service runs generations and answer bookkeeping.
type Service struct {
	questions store.QuestionRepo
	uploads   store.UploadRepo
	wrong     store.WrongAnswerRepo
	extractor *ingest.Extractor
	backend   Backend
	gen       *quizgen.Generator
	quota     quizgen.Quota
	log       *logging.Logger
}

// NewService creates a Service. log may be nil.
func NewService(st *store.Store, backend Backend, ex *ingest.Extractor, log *logging.Logger) *Service {
	if log == nil {
		log = logging.Nop()
	}
	return &Service{
		questions: st.QuestionRepo(),
		uploads:   st.UploadRepo(),
		wrong:     st.WrongAnswerRepo(),
		extractor: ex.WithLogger(log),
		backend:   backend,
		gen:       quizgen.NewGenerator(backend, log),
		quota:     quizgen.DefaultQuota(),
		log:       log,
	}
}

// Quota returns the per-source cap in force.
func (s *Service) Quota() quizgen.Quota { return s.quota }

// Request names what to generate from and with which backend.
type Request struct {
	Count int
	Model string
	Tier  llm.Tier
}

func (s *Service) resolve(req Request) (Request, error) {
	if req.Count < MinQuestionCount || req.Count > MaxQuestionCount {
		return req, invalid("question_count must be between %d and %d.", MinQuestionCount, MaxQuestionCount)
	}
	if req.Tier != llm.TierPro && req.Tier != llm.TierFree {
		return req, invalid("model_tier must be either 'pro' or 'free'.")
	}
	if req.Model == "" {
		req.Model = s.backend.DefaultModel(req.Tier)
	}
	return req, nil
}

func modeFor(tier llm.Tier) ingest.Mode {
	if tier == llm.TierFree {
		return ingest.ModeText
	}
	return ingest.ModeNative
}

// sourceName is the name a batch is stored under: the first contributing
// file.
func sourceName(c *ingest.SourceContent) string {
	if len(c.Files) == 0 || c.Files[0] == "" {
		return store.UnknownSource
	}
	return c.Files[0]
}

func toStored(qs []quizgen.Question) []store.QuestionData {
	out := make([]store.QuestionData, len(qs))
	for i, q := range qs {
		out[i] = store.QuestionData{
			Question:     q.Question,
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
			Explanation:  q.Explanation,
		}
	}
	return out
}

// FromNotesDir generates questions from every note in dir.
func (s *Service) FromNotesDir(ctx context.Context, dir string, req Request) (*Result, error) {
	req, err := s.resolve(req)
	if err != nil {
		return nil, err
	}

	content, err := s.extractor.FromDir(ctx, dir, modeFor(req.Tier))
	if err != nil {
		return nil, err
	}

	res, err := s.gen.Generate(ctx, quizgen.Input{Content: content, Count: req.Count, Model: req.Model, Tier: req.Tier})
	if err != nil {
		return nil, err
	}

	if err := s.questions.Append(ctx, sourceName(content), req.Model, toStored(res.Questions)); err != nil {
		return nil, fmt.Errorf("store questions: %w", err)
	}

	s.log.Info("generated questions from notes dir",
		"dir", dir, "files", len(content.Files), "questions", len(res.Questions), "model", req.Model, "tier", req.Tier)

	return &Result{
		Questions:   res.Questions,
		SourceFiles: content.Files,
		Model:       req.Model,
		Tier:        req.Tier,
		NotesDir:    dir,
	}, nil
}

// Upload is a single file sent by the user.
type Upload struct {
	Filename string
	Data     []byte
	// Override regenerates from a file whose name is already stored.
	Override bool
}

// FromUpload generates questions from one uploaded file and stores the file
// so later batches can reuse it.
func (s *Service) FromUpload(ctx context.Context, up Upload, req Request) (*Result, error) {
	req, err := s.resolve(req)
	if err != nil {
		return nil, err
	}
	if up.Filename == "" {
		return nil, invalid("No file uploaded.")
	}

	name, err := ingest.SanitizeFilename(up.Filename)
	if err != nil {
		return nil, err
	}

	exists, err := s.uploads.Has(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check upload: %w", err)
	}
	if exists && !up.Override {
		return nil, &FileExistsError{Name: name}
	}
	if len(up.Data) == 0 {
		return nil, &ingest.ContentError{Msg: "Uploaded file is empty."}
	}

	content, err := s.extractor.FromBytes(ctx, name, up.Data, modeFor(req.Tier))
	if err != nil {
		return nil, err
	}

	res, err := s.gen.Generate(ctx, quizgen.Input{Content: content, Count: req.Count, Model: req.Model, Tier: req.Tier})
	if err != nil {
		return nil, err
	}

	total, err := s.uploads.SaveWithQuestions(ctx, name, up.Data, req.Model, toStored(res.Questions))
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	s.log.Info("generated questions from upload",
		"file", name, "bytes", len(up.Data), "questions", len(res.Questions), "total", total, "override", up.Override)

	return &Result{
		Questions:      res.Questions,
		SourceFiles:    content.Files,
		Model:          req.Model,
		Tier:           req.Tier,
		TotalForSource: total,
		MaxPerSource:   s.quota.Max,
	}, nil
}

// More generates the next batch for a previously uploaded source. The
// stored total never exceeds the quota: the write is capped in the same
// transaction that counts.
func (s *Service) More(ctx context.Context, source, model string, tier llm.Tier) (*Result, error) {
	if tier != llm.TierPro && tier != llm.TierFree {
		return nil, invalid("model_tier must be either 'pro' or 'free'.")
	}
	name, err := ingest.SanitizeFilename(source)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = s.backend.DefaultModel(tier)
	}

	current, err := s.questions.Count(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	count, err := s.quota.NextBatch(name, current)
	if err != nil {
		return nil, err
	}

	data, err := s.uploads.Bytes(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &ingest.ContentError{Msg: fmt.Sprintf("No uploaded source found for '%s'.", name), Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("load upload: %w", err)
	}

	content, err := s.extractor.FromBytes(ctx, name, data, modeFor(tier))
	if err != nil {
		return nil, err
	}

	res, err := s.gen.Generate(ctx, quizgen.Input{
		Content: content,
		Count:   count,
		Model:   model,
		Tier:    tier,
		Purpose: "more",
	})
	if err != nil {
		return nil, err
	}

	stored, total, err := s.questions.AppendCapped(ctx, sourceName(content), model, toStored(res.Questions), s.quota.Max)
	if err != nil {
		return nil, fmt.Errorf("store questions: %w", err)
	}
	if stored == 0 {
		return nil, &quizgen.MaxReachedError{Source: name, Total: total, Max: s.quota.Max}
	}
	if stored < len(res.Questions) {
		s.log.Info("batch trimmed to quota", "file", name, "generated", len(res.Questions), "stored", stored)
	}

	return &Result{
		Questions:      res.Questions[:stored],
		SourceFiles:    content.Files,
		Model:          model,
		Tier:           tier,
		TotalForSource: total,
		MaxPerSource:   s.quota.Max,
	}, nil
}
