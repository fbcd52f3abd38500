package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// UnknownSource is the source name recorded when a batch has no filename.
const UnknownSource = "unknown"

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int    // max results (0 = unlimited)
	Purpose string // exact match when non-empty
}

// QuestionData is one multiple-choice question as persisted.
type QuestionData struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
}

// QuestionRecord is a stored generated question.
type QuestionRecord struct {
	ID         int64
	SourceFile string
	Model      string
	QuestionData
	CreatedAt string
}

// QuestionCollection summarizes the generated questions of one source.
type QuestionCollection struct {
	SourceFile    string `json:"source_file"`
	DateCreated   string `json:"date_created"`
	QuestionCount int    `json:"question_count"`
}

// QuestionRepo persists generated questions and enforces the per-source cap.
type QuestionRepo interface {
	// Count returns the number of stored questions for source.
	Count(ctx context.Context, source string) (int, error)

	// Append stores every question under source.
	Append(ctx context.Context, source, model string, qs []QuestionData) error

	// AppendCapped stores at most capacity-current questions in one transaction
	// and returns how many were stored and the resulting total.
	AppendCapped(ctx context.Context, source, model string, qs []QuestionData, capacity int) (stored, total int, err error)

	// ListBySource returns newest first.
	ListBySource(ctx context.Context, source string, limit int) ([]QuestionRecord, error)

	// Collections groups stored questions by source, newest first.
	Collections(ctx context.Context) ([]QuestionCollection, error)

	// DeleteCollection removes all questions of source and returns the count.
	DeleteCollection(ctx context.Context, source string) (int64, error)
}

// UploadRepo stores uploaded source files so later batches can re-read them.
type UploadRepo interface {
	Has(ctx context.Context, name string) (bool, error)

	// Bytes returns the stored file content, or ErrNotFound.
	Bytes(ctx context.Context, name string) ([]byte, error)

	// SaveWithQuestions records the upload and its content, replacing any
	// earlier content, and appends qs under name. All of it happens in one
	// transaction. It returns the stored total for name.
	SaveWithQuestions(ctx context.Context, name string, data []byte, model string, qs []QuestionData) (int, error)
}

// WrongAnswerData is a single incorrect answer to record.
type WrongAnswerData struct {
	SourceFile    string
	Question      string
	Options       []string
	CorrectIndex  int
	SelectedIndex int
	Model         string
}

// WrongAnswerRecord is a stored wrong answer.
type WrongAnswerRecord struct {
	ID int64
	WrongAnswerData
	CreatedAt string
}

// WrongAnswerCollection summarizes the wrong answers of one source.
type WrongAnswerCollection struct {
	SourceFile   string `json:"source_file"`
	DateUploaded string `json:"date_uploaded"`
	WrongCount   int    `json:"wrong_count"`
}

// WrongAnswerRepo persists answers the learner got wrong.
type WrongAnswerRepo interface {
	Add(ctx context.Context, data WrongAnswerData) error

	// List returns newest first. An empty source lists every source.
	List(ctx context.Context, source string, limit int) ([]WrongAnswerRecord, error)

	Collections(ctx context.Context) ([]WrongAnswerCollection, error)
	DeleteCollection(ctx context.Context, source string) (int64, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	RequestID    string
	Provider     string
	Model        string
	Tier         string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEventRecord is a stored LLM request event.
type LLMEventRecord struct {
	ID        int
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageRecord aggregates calls for one purpose.
type LLMUsageRecord struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMModelUsage aggregates calls for one model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo records and queries LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEventRecord, error)

	// GetLLMEvent returns the event with id, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMEventRecord, error)

	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageRecord, error)
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)
}
