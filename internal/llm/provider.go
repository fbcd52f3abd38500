package llm

import (
	"context"
	"errors"
	"strings"
)

// Provider is one backend variant able to turn a Request into reply text.
type Provider interface {
	// Generate sends the request and returns the raw reply text. It never
	// retries on its own.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Name identifies the vendor, e.g. "openai" or "openrouter".
	Name() string

	// ModelID returns the model used when Request.Model is empty.
	ModelID() string
}

// Tier selects a backend family and its capability set.
type Tier string

const (
	// TierPro is the document-native backend. It accepts file payloads.
	TierPro Tier = "pro"
	// TierFree is the text-only backend.
	TierFree Tier = "free"
)

// ParseTier normalizes a tier string. Empty input maps to TierPro.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pro":
		return TierPro, nil
	case "free":
		return TierFree, nil
	}
	return "", errors.New("model_tier must be either 'pro' or 'free'.")
}

// Request describes one generation call.
type Request struct {
	// Model overrides the provider default when non-empty.
	Model string

	// System is the system prompt.
	System string

	// Prompt is the instruction text.
	Prompt string

	// Texts are rendered note fragments, in order.
	Texts []string

	// Files are binary documents for backends that ingest them natively.
	Files []FilePart

	MaxTokens   int
	Temperature float64
}

// FilePart is an opaque document payload.
type FilePart struct {
	Filename string
	MIMEType string
	Data     []byte
}

// NotesText joins the non-empty text fragments with blank lines.
func (r Request) NotesText() string {
	parts := make([]string, 0, len(r.Texts))
	for _, t := range r.Texts {
		if s := strings.TrimSpace(t); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// FlatPrompt is the single-string form used by text-only backends.
func (r Request) FlatPrompt() string {
	return r.Prompt + "\n\nNOTES:\n" + r.NotesText()
}

// Response holds a backend reply.
type Response struct {
	// Text is the extracted reply, trimmed.
	Text string

	Usage Usage

	// Model is the model that served the request.
	Model string

	// StopReason is normalized to "end", "max_tokens" or "error".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

func modelOr(req Request, fallback string) string {
	if m := strings.TrimSpace(req.Model); m != "" {
		return m
	}
	return fallback
}
