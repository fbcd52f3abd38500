package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

// OpenAIProvider is the document-native backend built on the Responses API.
// Text fragments and PDF payloads travel together in one user message.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg VendorConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultProModel
	}

	return &OpenAIProvider{
		client: newOpenAIClient(cfg.APIKey, cfg.BaseURL),
		model:  model,
	}, nil
}

func newOpenAIClient(apiKey, baseURL string) openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(newErrorBodyClient()),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return openai.NewClient(opts...)
}

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	params := responses.ResponseNewParams{
		Model: modelOr(req, p.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: buildOpenAIInput(req),
		},
	}
	if req.MaxTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(req.MaxTokens))
	}

	ctx, raw := withErrorBody(ctx)
	resp, err := p.client.Responses.New(ctx, params)
	if err != nil {
		return nil, mapOpenAIError(err, raw.String())
	}

	return &Response{
		Text: extractOpenAIText(resp),
		Usage: Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
			TotalTokens:  int(resp.Usage.TotalTokens),
		},
		Model:      string(resp.Model),
		StopReason: mapOpenAIStatus(string(resp.Status)),
	}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) ModelID() string { return p.model }

func buildOpenAIInput(req Request) responses.ResponseInputParam {
	var items responses.ResponseInputParam

	if req.System != "" {
		items = append(items, responses.ResponseInputItemParamOfMessage(
			responses.ResponseInputMessageContentListParam{
				responses.ResponseInputContentParamOfInputText(req.System),
			},
			"system",
		))
	}

	content := responses.ResponseInputMessageContentListParam{
		responses.ResponseInputContentParamOfInputText(req.Prompt),
	}
	for _, t := range req.Texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		content = append(content, responses.ResponseInputContentParamOfInputText(t))
	}
	for _, f := range req.Files {
		content = append(content, responses.ResponseInputContentUnionParam{
			OfInputFile: &responses.ResponseInputFileParam{
				Filename: openai.String(f.Filename),
				FileData: openai.String(dataURL(f)),
			},
		})
	}
	items = append(items, responses.ResponseInputItemParamOfMessage(content, "user"))

	return items
}

func dataURL(f FilePart) string {
	mime := f.MIMEType
	if mime == "" {
		mime = "application/pdf"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}

// openAIOutput mirrors the parts of a Responses payload needed when the
// joined output_text is empty.
type openAIOutput struct {
	Output []struct {
		Content []struct {
			Text *string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// extractOpenAIText prefers the joined output text and otherwise walks the
// output items, concatenating every text fragment with newlines.
func extractOpenAIText(resp *responses.Response) string {
	if s := strings.TrimSpace(resp.OutputText()); s != "" {
		return s
	}
	return walkOpenAIOutput([]byte(resp.RawJSON()))
}

func walkOpenAIOutput(raw []byte) string {
	var out openAIOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return ""
	}
	var texts []string
	for _, item := range out.Output {
		for _, c := range item.Content {
			if c.Text != nil {
				texts = append(texts, *c.Text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(texts, "\n"))
}

func mapOpenAIStatus(status string) string {
	switch status {
	case "completed", "":
		return "end"
	case "incomplete":
		return "max_tokens"
	default:
		return "error"
	}
}

func mapOpenAIError(err error, body string) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		var header http.Header
		if apiErr.Response != nil {
			header = apiErr.Response.Header
		}
		if body == "" {
			body = apiErr.RawJSON()
		}
		return newBackendError("openai", apiErr.StatusCode, body, header, err)
	}
	return newBackendError("openai", 0, "", nil, err)
}
