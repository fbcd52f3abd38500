package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/studyquiz/internal/llm"
	"github.com/abhisek/studyquiz/internal/logging"
	"github.com/abhisek/studyquiz/internal/quizgen"
	"github.com/abhisek/studyquiz/internal/store"
	"github.com/abhisek/studyquiz/internal/study"
)

const (
	defaultDirCount    = 5
	defaultUploadCount = 10
	defaultWrongLimit  = 100
	defaultListLimit   = 500
)

type handler struct {
	svc       *study.Service
	notesDir  string
	maxUpload int64
	log       *logging.Logger
}

// flexInt accepts a JSON number or a numeric string.
type flexInt struct {
	Value int
	Set   bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n = json.Number(strings.TrimSpace(s))
	}
	v, err := strconv.Atoi(n.String())
	if err != nil {
		return fmt.Errorf("not an integer: %s", n)
	}
	f.Value, f.Set = v, true
	return nil
}

func (f flexInt) or(def int) int {
	if !f.Set {
		return def
	}
	return f.Value
}

// bindJSON decodes an optional JSON body. An empty body leaves dst as is.
func bindJSON(c *gin.Context, dst any) error {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return badRequest("Could not read request body.")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return badRequest("Request body must be a JSON object with valid fields.")
	}
	return nil
}

func parseTier(s string) (llm.Tier, error) {
	tier, err := llm.ParseTier(s)
	if err != nil {
		return "", badRequest(err.Error())
	}
	return tier, nil
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest(fmt.Sprintf("%s must be an integer.", key))
	}
	return v, nil
}

func (h *handler) root(c *gin.Context) {
	c.String(http.StatusOK, "Hello")
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type generationResponse struct {
	Questions      []quizgen.Question `json:"questions"`
	SourceFiles    []string           `json:"source_files"`
	Model          string             `json:"model"`
	ModelTier      llm.Tier           `json:"model_tier"`
	NotesDir       string             `json:"notes_dir,omitempty"`
	TotalForSource *int               `json:"total_questions_for_source,omitempty"`
	MaxPerSource   *int               `json:"max_questions_per_source,omitempty"`
}

func newGenerationResponse(res *study.Result, withTotals bool) generationResponse {
	out := generationResponse{
		Questions:   res.Questions,
		SourceFiles: res.SourceFiles,
		Model:       res.Model,
		ModelTier:   res.Tier,
		NotesDir:    res.NotesDir,
	}
	if out.Questions == nil {
		out.Questions = []quizgen.Question{}
	}
	if out.SourceFiles == nil {
		out.SourceFiles = []string{}
	}
	if withTotals {
		total, limit := res.TotalForSource, res.MaxPerSource
		out.TotalForSource, out.MaxPerSource = &total, &limit
	}
	return out
}

type dirRequest struct {
	QuestionCount flexInt `json:"question_count"`
	Model         string  `json:"model"`
	ModelTier     string  `json:"model_tier"`
	NotesDir      string  `json:"notes_dir"`
}

func (h *handler) generateFromDir(c *gin.Context) {
	var req dirRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	tier, err := parseTier(req.ModelTier)
	if err != nil {
		respondError(c, err)
		return
	}
	dir, err := resolveDir(req.NotesDir, h.notesDir)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.svc.FromNotesDir(c.Request.Context(), dir, study.Request{
		Count: req.QuestionCount.or(defaultDirCount),
		Model: strings.TrimSpace(req.Model),
		Tier:  tier,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGenerationResponse(res, false))
}

// formValue returns the first trimmed value of a multipart field.
func formValue(form *multipart.Form, key string) string {
	if vs := form.Value[key]; len(vs) > 0 {
		return strings.TrimSpace(vs[0])
	}
	return ""
}

// resolveDir expands a leading ~ and makes dir absolute. An empty dir
// uses def.
func resolveDir(dir, def string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = def
	}
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve notes dir: %w", err)
	}
	return abs, nil
}

func (h *handler) generateFromUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, badRequest("Uploaded file is too large."))
			return
		}
		respondError(c, badRequest("Request must be multipart/form-data."))
		return
	}

	tier, err := parseTier(formValue(form, "model_tier"))
	if err != nil {
		respondError(c, err)
		return
	}
	count := defaultUploadCount
	if raw := formValue(form, "question_count"); raw != "" {
		count, err = strconv.Atoi(raw)
		if err != nil {
			respondError(c, badRequest("question_count must be an integer."))
			return
		}
	}

	up := study.Upload{Override: strings.EqualFold(formValue(form, "override"), "true")}
	if files := form.File["file"]; len(files) > 0 {
		fh := files[0]
		f, err := fh.Open()
		if err != nil {
			respondError(c, fmt.Errorf("open upload: %w", err))
			return
		}
		up.Data, err = io.ReadAll(f)
		f.Close()
		if err != nil {
			respondError(c, fmt.Errorf("read upload: %w", err))
			return
		}
		up.Filename = fh.Filename
		h.log.Debug("upload received", "file", fh.Filename, "bytes", len(up.Data), "override", up.Override)
	}

	res, err := h.svc.FromUpload(c.Request.Context(), up, study.Request{
		Count: count,
		Model: formValue(form, "model"),
		Tier:  tier,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGenerationResponse(res, true))
}

type moreRequest struct {
	SourceFile string `json:"source_file"`
	Model      string `json:"model"`
	ModelTier  string `json:"model_tier"`
}

func (h *handler) moreQuestions(c *gin.Context) {
	var req moreRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	tier, err := parseTier(req.ModelTier)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.svc.More(c.Request.Context(), req.SourceFile, strings.TrimSpace(req.Model), tier)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGenerationResponse(res, true))
}

type wrongAnswerRequest struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectIndex  *int     `json:"correct_index"`
	SelectedIndex *int     `json:"selected_index"`
	SourceFile    string   `json:"source_file"`
	Model         string   `json:"model"`
}

func indexOrInvalid(p *int) int {
	if p == nil {
		return -1
	}
	return *p
}

func (h *handler) recordWrongAnswer(c *gin.Context) {
	var req wrongAnswerRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	stored, err := h.svc.RecordAnswer(c.Request.Context(), study.Answer{
		Question:      req.Question,
		Options:       req.Options,
		CorrectIndex:  indexOrInvalid(req.CorrectIndex),
		SelectedIndex: indexOrInvalid(req.SelectedIndex),
		SourceFile:    req.SourceFile,
		Model:         strings.TrimSpace(req.Model),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "stored": stored})
}

type wrongAnswerItem struct {
	ID            int64    `json:"id"`
	SourceFile    string   `json:"source_file"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectIndex  int      `json:"correct_index"`
	SelectedIndex int      `json:"selected_index"`
	Model         string   `json:"model"`
	CreatedAt     string   `json:"created_at"`
}

func (h *handler) listWrongAnswers(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultWrongLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	recs, err := h.svc.WrongAnswers(c.Request.Context(), c.Query("source_file"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]wrongAnswerItem, 0, len(recs))
	for _, r := range recs {
		items = append(items, wrongAnswerItem{
			ID:            r.ID,
			SourceFile:    r.SourceFile,
			Question:      r.Question,
			Options:       nonNil(r.Options),
			CorrectIndex:  r.CorrectIndex,
			SelectedIndex: r.SelectedIndex,
			Model:         r.Model,
			CreatedAt:     r.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *handler) listErrorCollections(c *gin.Context) {
	items, err := h.svc.ErrorCollections(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []store.WrongAnswerCollection{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type sourceRequest struct {
	SourceFile string `json:"source_file"`
}

func (h *handler) deleteErrorCollection(c *gin.Context) {
	var req sourceRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	n, err := h.svc.DeleteErrorCollection(c.Request.Context(), req.SourceFile)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "deleted": n})
}

func (h *handler) listQuestionCollections(c *gin.Context) {
	items, err := h.svc.QuestionCollections(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []store.QuestionCollection{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *handler) deleteQuestionCollection(c *gin.Context) {
	var req sourceRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	n, err := h.svc.DeleteQuestionCollection(c.Request.Context(), req.SourceFile)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "deleted": n})
}

type generatedItem struct {
	ID           int64    `json:"id"`
	SourceFile   string   `json:"source_file"`
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
	Model        string   `json:"model"`
	CreatedAt    string   `json:"created_at"`
}

func (h *handler) listGeneratedQuestions(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultListLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	recs, err := h.svc.GeneratedQuestions(c.Request.Context(), c.Query("source_file"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]generatedItem, 0, len(recs))
	for _, r := range recs {
		items = append(items, generatedItem{
			ID:           r.ID,
			SourceFile:   r.SourceFile,
			Question:     r.Question,
			Options:      nonNil(r.Options),
			CorrectIndex: r.CorrectIndex,
			Explanation:  r.Explanation,
			Model:        r.Model,
			CreatedAt:    r.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
