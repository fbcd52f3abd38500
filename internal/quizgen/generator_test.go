package quizgen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/studyquiz/internal/ingest"
	"github.com/abhisek/studyquiz/internal/llm"
)

func newTestGenerator(pro, free *llm.MockProvider) *Generator {
	return NewGenerator(llm.NewDispatcher(pro, free, 0), nil)
}

func textContent(name, text string) *ingest.SourceContent {
	return &ingest.SourceContent{
		Texts: []ingest.Fragment{{Filename: name, Text: text}},
		Files: []string{name},
	}
}

func TestGenerator_EndToEnd(t *testing.T) {
	pro := llm.NewMockProvider(llm.MockResponse{Text: parisReply}).WithModel("gpt-5.2")
	g := newTestGenerator(pro, llm.NewMockProvider())

	res, err := g.Generate(context.Background(), Input{
		Content: textContent("notes.txt", "The capital of France is Paris."),
		Count:   1,
		Tier:    llm.TierPro,
	})
	require.NoError(t, err)
	require.Len(t, res.Questions, 1)
	assert.Equal(t, 0, res.Questions[0].CorrectIndex)
	assert.Equal(t, "gpt-5.2", res.Model)
	assert.Equal(t, LanguageEnglish, res.Language)

	require.Equal(t, 1, pro.CallCount())
	req := pro.Calls[0]
	assert.Equal(t, SystemPrompt, req.System)
	assert.Contains(t, req.Prompt, "Create exactly 1 questions.")
	assert.Contains(t, req.Prompt, "primarily English")
	assert.Equal(t, []string{"# Source: notes.txt\nThe capital of France is Paris."}, req.Texts)
	assert.Empty(t, req.Files)
}

func TestGenerator_PassesPayloads(t *testing.T) {
	pro := llm.NewMockProvider(llm.MockResponse{Text: "```json\n" + parisReply + "\n```"})
	g := newTestGenerator(pro, llm.NewMockProvider())

	content := &ingest.SourceContent{
		Payloads: []ingest.Payload{{Filename: "a.pdf", MIMEType: ingest.PDFMIMEType, Data: []byte("%PDF")}},
		Files:    []string{"a.pdf"},
	}
	res, err := g.Generate(context.Background(), Input{Content: content, Count: 2, Model: "custom", Tier: llm.TierPro})
	require.NoError(t, err)
	assert.Len(t, res.Questions, 1)
	assert.Equal(t, LanguageUnknown, res.Language)

	req := pro.Calls[0]
	assert.Equal(t, "custom", req.Model)
	require.Len(t, req.Files, 1)
	assert.Equal(t, "a.pdf", req.Files[0].Filename)
	assert.False(t, strings.Contains(req.Prompt, "Language hint"))
}

func TestGenerator_ChineseNotes(t *testing.T) {
	free := llm.NewMockProvider(llm.MockResponse{Text: parisReply})
	g := newTestGenerator(llm.NewMockProvider(), free)

	res, err := g.Generate(context.Background(), Input{
		Content: textContent("笔记.txt", "光合作用是植物利用光能把二氧化碳和水合成有机物的过程。"),
		Count:   3,
		Tier:    llm.TierFree,
	})
	require.NoError(t, err)
	assert.Equal(t, LanguageChinese, res.Language)
	assert.Contains(t, free.Calls[0].Prompt, "primarily Chinese")
}

func TestGenerator_Errors(t *testing.T) {
	t.Run("empty content", func(t *testing.T) {
		g := newTestGenerator(llm.NewMockProvider(), llm.NewMockProvider())
		_, err := g.Generate(context.Background(), Input{Content: &ingest.SourceContent{}, Count: 1})
		var ce *ingest.ContentError
		assert.True(t, errors.As(err, &ce))
	})

	t.Run("schema failure", func(t *testing.T) {
		pro := llm.NewMockProvider(llm.MockResponse{Text: `{"questions":[{"question":"x"}]}`})
		g := newTestGenerator(pro, llm.NewMockProvider())
		_, err := g.Generate(context.Background(), Input{Content: textContent("a.txt", "abc"), Count: 1, Tier: llm.TierPro})
		var se *SchemaError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, "No valid questions were produced by the model.", err.Error())
	})

	t.Run("backend failure", func(t *testing.T) {
		boom := &llm.BackendError{Provider: "openai", StatusCode: 500, Body: "oops"}
		pro := llm.NewMockProvider(llm.MockResponse{Err: boom})
		g := newTestGenerator(pro, llm.NewMockProvider())
		_, err := g.Generate(context.Background(), Input{Content: textContent("a.txt", "abc"), Count: 1, Tier: llm.TierPro})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, "OpenAI request failed (500): oops", err.Error())
	})

	t.Run("empty reply", func(t *testing.T) {
		pro := llm.NewMockProvider(llm.MockResponse{Text: "   "})
		g := newTestGenerator(pro, llm.NewMockProvider())
		_, err := g.Generate(context.Background(), Input{Content: textContent("a.txt", "abc"), Count: 1, Tier: llm.TierPro})
		var ee *llm.EmptyReplyError
		assert.True(t, errors.As(err, &ee))
	})
}

func TestGenerator_SetsPurpose(t *testing.T) {
	var seen string
	d := dispatcherFunc(func(ctx context.Context, _ llm.Tier, _ llm.Request) (*llm.Response, error) {
		seen = llm.PurposeFrom(ctx)
		return &llm.Response{Text: parisReply}, nil
	})
	g := NewGenerator(d, nil)

	_, err := g.Generate(context.Background(), Input{Content: textContent("a.txt", "abc"), Count: 1, Purpose: "more"})
	require.NoError(t, err)
	assert.Equal(t, "more", seen)

	_, err = g.Generate(context.Background(), Input{Content: textContent("a.txt", "abc"), Count: 1})
	require.NoError(t, err)
	assert.Equal(t, "generate", seen)
}

type dispatcherFunc func(ctx context.Context, tier llm.Tier, req llm.Request) (*llm.Response, error)

func (f dispatcherFunc) Generate(ctx context.Context, tier llm.Tier, req llm.Request) (*llm.Response, error) {
	return f(ctx, tier, req)
}
