// Package quizgen builds prompts from ingested notes, sends them to the
// configured backend and validates the questions that come back.
package quizgen

import (
	"context"
	"errors"

	"github.com/abhisek/studyquiz/internal/ingest"
	"github.com/abhisek/studyquiz/internal/llm"
	"github.com/abhisek/studyquiz/internal/logging"
)

// Dispatcher sends a request to the backend for a tier.
type Dispatcher interface {
	Generate(ctx context.Context, tier llm.Tier, req llm.Request) (*llm.Response, error)
}

// Input is one generation request.
type Input struct {
	Content *ingest.SourceContent
	Count   int
	Model   string
	Tier    llm.Tier
	// Purpose labels the backend call in the event log. Defaults to
	// "generate".
	Purpose string
}

// Result holds the validated questions and what produced them.
type Result struct {
	Questions []Question
	Model     string
	Language  Language
}

// Generator runs the prompt, dispatch and validation steps.
type Generator struct {
	dispatcher Dispatcher
	log        *logging.Logger
}

// NewGenerator creates a Generator. log may be nil.
func NewGenerator(d Dispatcher, log *logging.Logger) *Generator {
	if log == nil {
		log = logging.Nop()
	}
	return &Generator{dispatcher: d, log: log}
}

// Generate produces at most in.Count questions from in.Content.
func (g *Generator) Generate(ctx context.Context, in Input) (*Result, error) {
	if in.Content == nil || in.Content.Empty() {
		return nil, &ingest.ContentError{Msg: "No readable notes were provided."}
	}
	if in.Count < 1 {
		return nil, errors.New("question count must be at least 1")
	}

	purpose := in.Purpose
	if purpose == "" {
		purpose = "generate"
	}
	ctx = llm.WithPurpose(ctx, purpose)

	lang := DetectLanguage(in.Content.CombinedText())
	req := llm.Request{
		Model:  in.Model,
		System: SystemPrompt,
		Prompt: BuildPrompt(in.Count, lang),
		Texts:  in.Content.RenderedTexts(),
		Files:  fileParts(in.Content.Payloads),
	}

	resp, err := g.dispatcher.Generate(ctx, in.Tier, req)
	if err != nil {
		return nil, err
	}

	questions, err := ParseReply(resp.Text)
	if err != nil {
		g.log.Warn("model reply rejected",
			"model", resp.Model, "tier", in.Tier, "error", err, "reply_bytes", len(resp.Text))
		return nil, err
	}
	if len(questions) != in.Count {
		g.log.Debug("question count differs from request",
			"requested", in.Count, "accepted", len(questions))
	}

	return &Result{Questions: questions, Model: resp.Model, Language: lang}, nil
}

func fileParts(payloads []ingest.Payload) []llm.FilePart {
	if len(payloads) == 0 {
		return nil
	}
	out := make([]llm.FilePart, 0, len(payloads))
	for _, p := range payloads {
		out = append(out, llm.FilePart{Filename: p.Filename, MIMEType: p.MIMEType, Data: p.Data})
	}
	return out
}
