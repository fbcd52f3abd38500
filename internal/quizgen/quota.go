package quizgen

import "fmt"

const (
	// MaxQuestionsPerSource caps the stored questions for one source file.
	MaxQuestionsPerSource = 50
	// MoreBatchSize is the largest incremental batch.
	MoreBatchSize = 10
)

// MaxReachedError means a source already holds its full quota.
type MaxReachedError struct {
	Source string
	Total  int
	Max    int
}

func (e *MaxReachedError) Error() string {
	return fmt.Sprintf("Maximum %d questions reached for '%s'.", e.Max, e.Source)
}

// Quota gates incremental generation for a source.
type Quota struct {
	Max   int
	Batch int
}

// DefaultQuota returns the standard per-source cap and batch size.
func DefaultQuota() Quota {
	return Quota{Max: MaxQuestionsPerSource, Batch: MoreBatchSize}
}

// NextBatch returns how many questions to request given the current
// stored count, or *MaxReachedError when nothing is left.
func (q Quota) NextBatch(source string, current int) (int, error) {
	if current >= q.Max {
		return 0, &MaxReachedError{Source: source, Total: current, Max: q.Max}
	}
	return min(q.Batch, q.Max-current), nil
}

// Remaining returns how many more questions source may store.
func (q Quota) Remaining(current int) int {
	return max(q.Max-current, 0)
}
