package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/JaxJericho/josh-2.0-sub000/internal/llm"
)

const (
	apiURL       = "https://api.anthropic.com/v1/messages"
	providerName = "anthropic"
)

type Client struct {
	apiKey string
	model  string
	url    string
	client *http.Client
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
		url:    apiURL,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// SetTestTransport points the client at a test server.
func (c *Client) SetTestTransport(url string) {
	c.url = url
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

type response struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateText sends a single-turn prompt. Failures are *llm.Error; request
// timeouts come from req.Timeout or the caller's context.
func (c *Client) GenerateText(ctx context.Context, req llm.Request) (llm.Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	body, err := json.Marshal(request{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    req.SystemPrompt,
		Messages:  []Message{{Role: "user", Content: req.UserPrompt}},
	})
	if err != nil {
		return llm.Response{}, &llm.Error{Message: "marshal request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return llm.Response{}, &llm.Error{Message: "create request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return llm.Response{}, &llm.Error{Message: "api call", Transient: true, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Response{}, &llm.Error{Message: "read response", Transient: true, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Type != "" {
			msg = errResp.Error.Type + ": " + errResp.Error.Message
		}
		return llm.Response{}, &llm.Error{
			StatusCode: resp.StatusCode,
			Transient:  llm.IsTransientStatus(resp.StatusCode),
			Message:    msg,
		}
	}

	var apiResp response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return llm.Response{}, &llm.Error{Message: "unmarshal response", Err: err}
	}
	if len(apiResp.Content) == 0 {
		return llm.Response{}, &llm.Error{Message: "empty response content", Err: errors.New("no content blocks")}
	}

	model := apiResp.Model
	if model == "" {
		model = c.model
	}
	return llm.Response{
		Text:     apiResp.Content[0].Text,
		Model:    model,
		Provider: providerName,
		Usage: &llm.Usage{
			InputTokens:  apiResp.Usage.InputTokens,
			OutputTokens: apiResp.Usage.OutputTokens,
		},
	}, nil
}

// Validate reports a usable configuration.
func (c *Client) Validate() error {
	if c.apiKey == "" {
		return fmt.Errorf("anthropic: api key not set")
	}
	return nil
}
