package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleQuestions(n int) []QuestionData {
	qs := make([]QuestionData, n)
	for i := range qs {
		qs[i] = QuestionData{
			Question:     "What is the capital of France?",
			Options:      []string{"Paris", "Lyon", "Nice", "Tours"},
			CorrectIndex: 0,
			Explanation:  "Paris is the capital.",
		}
	}
	return qs
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, table := range []string{
		"generated_questions", "wrong_answers", "uploaded_files", "uploaded_file_sources", "llm_requests",
	} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Fatalf("table %s: %v", table, err)
		}
	}
}

func TestQuestionAppendCountList(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuestionRepo()
	ctx := context.Background()

	if err := repo.Append(ctx, "notes.txt", "gpt-5.2", sampleQuestions(3)); err != nil {
		t.Fatalf("append: %v", err)
	}

	n, err := repo.Count(ctx, "notes.txt")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Fatalf("count = %d, want 3", n)
	}

	recs, err := repo.ListBySource(ctx, "notes.txt", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	if recs[0].ID < recs[1].ID {
		t.Errorf("expected newest first, got ids %d, %d", recs[0].ID, recs[1].ID)
	}
	if recs[0].Options[0] != "Paris" || recs[0].Model != "gpt-5.2" {
		t.Errorf("unexpected record: %+v", recs[0])
	}
}

func TestQuestionAppendCapped(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuestionRepo()
	ctx := context.Background()

	if err := repo.Append(ctx, "a.pdf", "m", sampleQuestions(45)); err != nil {
		t.Fatalf("append: %v", err)
	}

	stored, total, err := repo.AppendCapped(ctx, "a.pdf", "m", sampleQuestions(10), 50)
	if err != nil {
		t.Fatalf("append capped: %v", err)
	}
	if stored != 5 || total != 50 {
		t.Fatalf("stored=%d total=%d, want 5 and 50", stored, total)
	}

	stored, total, err = repo.AppendCapped(ctx, "a.pdf", "m", sampleQuestions(10), 50)
	if err != nil {
		t.Fatalf("append capped (full): %v", err)
	}
	if stored != 0 || total != 50 {
		t.Fatalf("stored=%d total=%d, want 0 and 50", stored, total)
	}
}

func TestQuestionAppendCappedConcurrent(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuestionRepo()
	ctx := context.Background()

	if err := repo.Append(ctx, "race.txt", "m", sampleQuestions(42)); err != nil {
		t.Fatalf("append: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := repo.AppendCapped(ctx, "race.txt", "m", sampleQuestions(8), 50); err != nil {
				t.Errorf("append capped: %v", err)
			}
		}()
	}
	wg.Wait()

	n, err := repo.Count(ctx, "race.txt")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 50 {
		t.Fatalf("count = %d, want 50", n)
	}
}

func TestQuestionCollections(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuestionRepo()
	ctx := context.Background()

	if err := repo.Append(ctx, "a.txt", "m", sampleQuestions(2)); err != nil {
		t.Fatalf("append a: %v", err)
	}
	if err := repo.Append(ctx, "b.txt", "m", sampleQuestions(3)); err != nil {
		t.Fatalf("append b: %v", err)
	}
	if err := repo.Append(ctx, "  ", "m", sampleQuestions(1)); err != nil {
		t.Fatalf("append blank: %v", err)
	}

	cols, err := repo.Collections(ctx)
	if err != nil {
		t.Fatalf("collections: %v", err)
	}
	counts := map[string]int{}
	for _, c := range cols {
		counts[c.SourceFile] = c.QuestionCount
		if c.DateCreated == "" {
			t.Errorf("missing date for %s", c.SourceFile)
		}
	}
	if len(counts) != 2 || counts["a.txt"] != 2 || counts["b.txt"] != 3 {
		t.Fatalf("unexpected collections: %+v", cols)
	}

	deleted, err := repo.DeleteCollection(ctx, "b.txt")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("deleted = %d, want 3", deleted)
	}
}

func TestUploadSaveWithQuestions(t *testing.T) {
	s := openTestStore(t)
	repo := s.UploadRepo()
	ctx := context.Background()

	ok, err := repo.Has(ctx, "notes.txt")
	if err != nil {
		t.Fatalf("has: %v", err)
	}
	if ok {
		t.Fatal("expected no upload yet")
	}

	_, err = repo.Bytes(ctx, "notes.txt")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	total, err := repo.SaveWithQuestions(ctx, "notes.txt", []byte("v1"), "gpt-5.2", sampleQuestions(3))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	total, err = repo.SaveWithQuestions(ctx, "notes.txt", []byte("v2"), "gpt-5.2", sampleQuestions(2))
	if err != nil {
		t.Fatalf("save again: %v", err)
	}
	if total != 5 {
		t.Fatalf("total = %d, want 5", total)
	}

	ok, err = repo.Has(ctx, "notes.txt")
	if err != nil || !ok {
		t.Fatalf("has = %v, %v; want true", ok, err)
	}
	data, err := repo.Bytes(ctx, "notes.txt")
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	if string(data) != "v2" {
		t.Fatalf("bytes = %q, want v2", data)
	}
}

func TestUploadSaveWithQuestionsRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.DB().ExecContext(ctx, `
		CREATE TRIGGER reject_questions BEFORE INSERT ON generated_questions
		BEGIN SELECT RAISE(ABORT, 'disk full'); END`)
	if err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	if _, err := s.UploadRepo().SaveWithQuestions(ctx, "notes.txt", []byte("v1"), "gpt-5.2", sampleQuestions(2)); err == nil {
		t.Fatal("expected insert failure")
	}

	ok, err := s.UploadRepo().Has(ctx, "notes.txt")
	if err != nil {
		t.Fatalf("has: %v", err)
	}
	if ok {
		t.Fatal("upload recorded although its questions were not")
	}
	if _, err := s.UploadRepo().Bytes(ctx, "notes.txt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for bytes, got %v", err)
	}
}

func TestWrongAnswers(t *testing.T) {
	s := openTestStore(t)
	repo := s.WrongAnswerRepo()
	ctx := context.Background()

	for _, src := range []string{"a.txt", "a.txt", "b.txt"} {
		err := repo.Add(ctx, WrongAnswerData{
			SourceFile:    src,
			Question:      "Q?",
			Options:       []string{"1", "2", "3", "4"},
			CorrectIndex:  0,
			SelectedIndex: 2,
			Model:         "m",
		})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	all, err := repo.List(ctx, "", 100)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].SourceFile != "b.txt" {
		t.Errorf("expected newest first, got %s", all[0].SourceFile)
	}

	bySource, err := repo.List(ctx, "a.txt", 100)
	if err != nil {
		t.Fatalf("list by source: %v", err)
	}
	if len(bySource) != 2 || bySource[0].SelectedIndex != 2 || len(bySource[0].Options) != 4 {
		t.Fatalf("unexpected rows: %+v", bySource)
	}

	cols, err := repo.Collections(ctx)
	if err != nil {
		t.Fatalf("collections: %v", err)
	}
	if len(cols) != 2 {
		t.Fatalf("collections = %d, want 2", len(cols))
	}

	n, err := repo.DeleteCollection(ctx, "a.txt")
	if err != nil || n != 2 {
		t.Fatalf("delete = %d, %v; want 2", n, err)
	}
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "openai", Model: "gpt-5.2", Purpose: "generate", InputTokens: 100, OutputTokens: 50, LatencyMs: 200, Success: true},
		{Provider: "openrouter", Model: "deepseek", Purpose: "more", InputTokens: 10, OutputTokens: 5, LatencyMs: 100, Success: true},
		{Provider: "openai", Model: "gpt-5.2", Purpose: "generate", LatencyMs: 400, Success: false, ErrorMessage: "boom"},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 10})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Success || got[0].ErrorMessage != "boom" {
		t.Errorf("expected newest failed event first, got %+v", got[0])
	}

	filtered, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "more"})
	if err != nil {
		t.Fatalf("query filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Provider != "openrouter" {
		t.Fatalf("unexpected filtered events: %+v", filtered)
	}

	one, err := repo.GetLLMEvent(ctx, got[2].ID)
	if err != nil || one == nil {
		t.Fatalf("get: %v, %v", one, err)
	}
	if one.InputTokens != 100 {
		t.Errorf("input tokens = %d, want 100", one.InputTokens)
	}

	missing, err := repo.GetLLMEvent(ctx, 999)
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing event, got %v, %v", missing, err)
	}

	usage, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if len(usage) != 2 || usage[0].Purpose != "generate" || usage[0].Calls != 2 || usage[0].AvgLatencyMs != 300 {
		t.Fatalf("unexpected usage: %+v", usage)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(byModel) != 2 {
		t.Fatalf("unexpected model usage: %+v", byModel)
	}
}
