package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"textloom/internal/services"
)

const defaultHTTPTimeout = 45 * time.Second

// Config captures the runtime settings required to talk to the provider.
type Config struct {
	APIKey         string
	BaseURL        string
	Referer        string
	Title          string
	TimeoutSeconds int
	// ModelIDs maps each tier to the provider's model identifier.
	ModelIDs map[Model]string
}

// Result is one successful generation. Token counts are nil when the
// provider omits usage data.
type Result struct {
	Text         string
	InputTokens  *int
	OutputTokens *int
}

// Client wraps an OpenRouter-compatible chat completion API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a generation client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Referer:        strings.TrimSpace(cfg.Referer),
			Title:          strings.TrimSpace(cfg.Title),
			TimeoutSeconds: cfg.TimeoutSeconds,
			ModelIDs:       cfg.ModelIDs,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Generate issues one chat completion request for the supplied prompt using
// the given system prompt and model tier. It performs exactly one attempt;
// retry policy belongs to the caller.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string, model Model) (Result, error) {
	var empty Result
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return empty, services.Wrap(services.ErrConfiguration, "textgen", "generate", "api key required", nil)
	}
	if !model.Valid() {
		return empty, services.Wrap(services.ErrConfiguration, "textgen", "generate",
			fmt.Sprintf("unknown model tier %q", model), nil)
	}
	modelID := strings.TrimSpace(c.cfg.ModelIDs[model])
	if modelID == "" {
		return empty, services.Wrap(services.ErrConfiguration, "textgen", "generate",
			fmt.Sprintf("no provider model configured for tier %q", model), nil)
	}
	userPrompt = strings.TrimSpace(userPrompt)
	if userPrompt == "" {
		return empty, services.Wrap(services.ErrValidation, "textgen", "generate", "prompt required", nil)
	}

	messages := make([]chatMessage, 0, 2)
	if systemPrompt = strings.TrimSpace(systemPrompt); systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	completion, err := c.sendChatRequest(ctx, chatCompletionRequest{Model: modelID, Messages: messages})
	if err != nil {
		return empty, err
	}
	return interpretCompletion(completion)
}

func (c *Client) sendChatRequest(ctx context.Context, payload chatCompletionRequest) (chatCompletionResponse, error) {
	var completion chatCompletionResponse
	encoded, err := json.Marshal(payload)
	if err != nil {
		return completion, services.Wrap(services.ErrValidation, "textgen", "request", "encode body", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return completion, services.Wrap(services.ErrConfiguration, "textgen", "request", "new request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
		req.Header.Set("Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return completion, err
		}
		return completion, services.Wrap(services.ErrProvider, "textgen", "request", "http error", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return completion, services.Wrap(services.ErrProvider, "textgen", "request", "read body", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		statusErr := &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
		if limit := classifyAPIMessage(string(body)); limit != nil {
			return completion, services.Wrap(limit, "textgen", "request", statusErr.Error(), nil)
		}
		return completion, services.Wrap(services.ErrProvider, "textgen", "request", "", statusErr)
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		return completion, services.Wrap(services.ErrProvider, "textgen", "request", "decode response", err)
	}
	if completion.Error != nil {
		message := strings.TrimSpace(completion.Error.Message)
		if limit := classifyAPIMessage(message); limit != nil {
			return completion, services.Wrap(limit, "textgen", "request", message, nil)
		}
		return completion, services.Wrap(services.ErrProvider, "textgen", "request", "api error: "+message, nil)
	}
	return completion, nil
}

func interpretCompletion(completion chatCompletionResponse) (Result, error) {
	var empty Result
	if len(completion.Choices) == 0 {
		return empty, services.Wrap(services.ErrProvider, "textgen", "response", "empty choices", nil)
	}
	choice := completion.Choices[0]
	finishReason := strings.TrimSpace(choice.FinishReason)
	content := strings.TrimSpace(choice.Message.Content)
	refusal := strings.TrimSpace(choice.Message.Refusal)

	if refusal != "" || finishReason == "content_filter" {
		detail := refusal
		if detail == "" {
			detail = "provider safety filter blocked the request"
		}
		return empty, services.Wrap(services.ErrSafetyBlocked, "textgen", "response", detail, nil)
	}
	if content == "" && finishReason == "length" {
		return empty, services.Wrap(services.ErrTokenLimit, "textgen", "response", "completion truncated to nothing", nil)
	}
	if content == "" {
		return empty, services.Wrap(services.ErrProvider, "textgen", "response",
			fmt.Sprintf("empty content (finish_reason=%q)", finishReason), nil)
	}

	result := Result{Text: content}
	if completion.Usage != nil {
		in := completion.Usage.PromptTokens
		out := completion.Usage.CompletionTokens
		result.InputTokens = &in
		result.OutputTokens = &out
	}
	return result, nil
}

// classifyAPIMessage maps provider error text onto the terminal token-limit
// sentinel when the message signals an oversized prompt.
func classifyAPIMessage(message string) error {
	lowered := strings.ToLower(message)
	switch {
	case strings.Contains(lowered, "context length"),
		strings.Contains(lowered, "token limit"),
		strings.Contains(lowered, "maximum tokens"),
		strings.Contains(lowered, "too many tokens"):
		return services.ErrTokenLimit
	default:
		return nil
	}
}

// Overloaded reports whether the failure signals provider saturation (rate
// limiting or overload), which earns a longer retry backoff than a generic
// transient failure.
func Overloaded(err error) bool {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable, 529:
			return true
		}
		return statusErr.RetryAfter > 0
	}
	return false
}

// RetryAfter extracts the provider-suggested delay from a failure, if any.
func RetryAfter(err error) (time.Duration, bool) {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) && statusErr.RetryAfter > 0 {
		return statusErr.RetryAfter, true
	}
	return 0, false
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := time.ParseDuration(value + "s"); err == nil && seconds > 0 {
		return seconds, true
	}
	if at, err := http.ParseTime(value); err == nil {
		if wait := time.Until(at); wait > 0 {
			return wait, true
		}
	}
	return 0, false
}
