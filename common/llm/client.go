package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/tracing"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultBaseUrl = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	maxErrorBody   = 512
)

var (
	ErrNotConfigured   = errors.New("no language model is configured")
	ErrUpstream        = errors.New("language model provider failed")
	ErrEmptyCompletion = errors.New("language model returned no completion")
)

type Options struct {
	ApiKey  string
	BaseUrl string
	Model   string
	Timeout time.Duration
	// HttpClient replaces the default http client, its Timeout is left untouched.
	HttpClient *http.Client
}

type Completion struct {
	Text  string
	Model string
}

type Completer interface {
	Complete(ctx context.Context, system, prompt string) (Completion, error)
}

// Client talks to an OpenAI compatible chat completions api.
type Client struct {
	model    string
	complete endpoint.Endpoint
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewClient returns a client that fails every call with ErrNotConfigured when no api key is set.
func NewClient(options Options) (*Client, error) {
	if options.Model == "" {
		options.Model = defaultModel
	}
	c := &Client{model: options.Model}
	if options.ApiKey == "" {
		c.complete = func(context.Context, interface{}) (interface{}, error) {
			return nil, ErrNotConfigured
		}
		return c, nil
	}

	target, err := url.Parse(completionsUrl(options.BaseUrl))
	if err != nil {
		return nil, errors.Wrap(err, "invalid language model base url")
	}

	httpClient := options.HttpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: options.Timeout}
	}

	c.complete = kithttp.NewClient(
		http.MethodPost,
		target,
		kithttp.EncodeJSONRequest,
		decodeChatResponse,
		kithttp.SetClient(httpClient),
		kithttp.ClientBefore(
			kithttp.SetRequestHeader("Authorization", "Bearer "+options.ApiKey),
			kithttp.SetRequestHeader("Content-Type", "application/json"),
		),
	).Endpoint()
	return c, nil
}

func (c *Client) Complete(ctx context.Context, system, prompt string) (completion Completion, err error) {
	ctx, span := tracing.Start(ctx, "llm.complete", attribute.String("llm.model", c.model))
	defer func() { tracing.End(span, err) }()

	request := chatRequest{
		Model:       c.model,
		Temperature: 0.4,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
	}

	response, err := c.complete(ctx, request)
	if err != nil {
		if errors.Cause(err) == ErrNotConfigured || errors.Cause(err) == ErrEmptyCompletion {
			return Completion{}, err
		}
		return Completion{}, errors.Wrap(ErrUpstream, err.Error())
	}

	chat := response.(chatResponse)
	text := strings.TrimSpace(chat.Choices[0].Message.Content)
	if chat.Model == "" {
		chat.Model = c.model
	}
	return Completion{Text: text, Model: chat.Model}, nil
}

func decodeChatResponse(_ context.Context, r *http.Response) (interface{}, error) {
	if r.StatusCode < 200 || r.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(r.Body, maxErrorBody))
		return nil, errors.Errorf("status %d: %s", r.StatusCode, strings.TrimSpace(string(body)))
	}

	response := chatResponse{}
	if err := json.NewDecoder(r.Body).Decode(&response); err != nil {
		return nil, errors.Wrap(err, "failed to decode completion")
	}
	if len(response.Choices) == 0 || strings.TrimSpace(response.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyCompletion
	}
	return response, nil
}

func completionsUrl(base string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	switch {
	case base == "":
		base = defaultBaseUrl
	case strings.HasSuffix(base, "/chat/completions"):
		return base
	}
	return base + "/chat/completions"
}
