package study

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/studyquiz/internal/llm"
	"github.com/abhisek/studyquiz/internal/store"
)

// Answer is a learner's response to one question.
type Answer struct {
	Question      string
	Options       []string
	CorrectIndex  int
	SelectedIndex int
	SourceFile    string
	Model         string
}

func validIndex(i int) bool { return i >= 0 && i <= 3 }

// RecordAnswer stores a wrong answer. Correct answers are accepted and
// reported as not stored.
func (s *Service) RecordAnswer(ctx context.Context, a Answer) (bool, error) {
	question := strings.TrimSpace(a.Question)
	if question == "" {
		return false, invalid("question is required.")
	}
	if len(a.Options) != 4 {
		return false, invalid("options must be a list of exactly 4 strings.")
	}
	if !validIndex(a.CorrectIndex) {
		return false, invalid("correct_index must be 0..3.")
	}
	if !validIndex(a.SelectedIndex) {
		return false, invalid("selected_index must be 0..3.")
	}
	if a.SelectedIndex == a.CorrectIndex {
		return false, nil
	}

	options := make([]string, len(a.Options))
	for i, o := range a.Options {
		options[i] = strings.TrimSpace(o)
	}
	model := a.Model
	if model == "" {
		model = s.backend.DefaultModel(llm.TierPro)
	}

	err := s.wrong.Add(ctx, store.WrongAnswerData{
		SourceFile:    a.SourceFile,
		Question:      question,
		Options:       options,
		CorrectIndex:  a.CorrectIndex,
		SelectedIndex: a.SelectedIndex,
		Model:         model,
	})
	if err != nil {
		return false, fmt.Errorf("store wrong answer: %w", err)
	}
	return true, nil
}

// WrongAnswers lists wrong answers, newest first. An empty source lists all.
func (s *Service) WrongAnswers(ctx context.Context, source string, limit int) ([]store.WrongAnswerRecord, error) {
	if limit < 1 || limit > 500 {
		return nil, invalid("limit must be between 1 and 500.")
	}
	return s.wrong.List(ctx, strings.TrimSpace(source), limit)
}

// ErrorCollections groups wrong answers by source.
func (s *Service) ErrorCollections(ctx context.Context) ([]store.WrongAnswerCollection, error) {
	return s.wrong.Collections(ctx)
}

// DeleteErrorCollection removes every wrong answer of source.
func (s *Service) DeleteErrorCollection(ctx context.Context, source string) (int64, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return 0, invalid("source_file is required.")
	}
	return s.wrong.DeleteCollection(ctx, source)
}

// QuestionCollections groups generated questions by source.
func (s *Service) QuestionCollections(ctx context.Context) ([]store.QuestionCollection, error) {
	return s.questions.Collections(ctx)
}

// DeleteQuestionCollection removes every generated question of source.
func (s *Service) DeleteQuestionCollection(ctx context.Context, source string) (int64, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return 0, invalid("source_file is required.")
	}
	return s.questions.DeleteCollection(ctx, source)
}

// GeneratedQuestions lists the stored questions of source, newest first.
func (s *Service) GeneratedQuestions(ctx context.Context, source string, limit int) ([]store.QuestionRecord, error) {
	if limit < 1 || limit > 1000 {
		return nil, invalid("limit must be between 1 and 1000.")
	}
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, invalid("source_file is required.")
	}
	return s.questions.ListBySource(ctx, source, limit)
}
