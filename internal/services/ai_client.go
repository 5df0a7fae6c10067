// Package services provides the document-structuring and interactive-content
// pipeline for the study assistant backend.
package services

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"context"

	"studyapp/internal/config"
	"studyapp/internal/observability"
	contextutils "studyapp/internal/utils"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AIClient is the generation-service contract: a text prompt in, a raw text
// payload out. The payload is expected but never guaranteed to contain valid
// JSON; structure-bearing consumers route it through ExtractJSON. Server-side
// faults surface as retryable AppErrors so callWithRetry can classify them.
type AIClient interface {
	// Generate issues a plain-text generation request.
	Generate(ctx context.Context, prompt string) (string, error)
	// GenerateJSON issues a request with structured-output mode requested
	// where the provider supports it. The response still requires extraction.
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// Message represents a chat message in the OpenAI-compatible request format
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat selects the provider's structured-output mode
type ResponseFormat struct {
	Type string `json:"type"`
}

// OpenAIRequest is the request body for OpenAI-compatible chat completions
type OpenAIRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// OpenAIResponse is the response body from OpenAI-compatible chat completions
type OpenAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// HTTPAIClient calls an OpenAI-compatible chat-completions endpoint.
type HTTPAIClient struct {
	httpClient *http.Client
	provider   config.ProviderConfig
	logger     *observability.Logger
}

// NewHTTPAIClient creates an AI client for the configured provider with an
// instrumented HTTP transport.
func NewHTTPAIClient(provider config.ProviderConfig, logger *observability.Logger) *HTTPAIClient {
	httpClient := &http.Client{
		// Slightly less than AIRequestTimeout to allow context cancellation first.
		Timeout: config.AIRequestTimeout - 5*time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
		),
	}

	return &HTTPAIClient{
		httpClient: httpClient,
		provider:   provider,
		logger:     logger,
	}
}

// Generate implements AIClient.
func (c *HTTPAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	return c.call(ctx, prompt, false)
}

// GenerateJSON implements AIClient.
func (c *HTTPAIClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return c.call(ctx, prompt, c.provider.StructuredOutput)
}

func (c *HTTPAIClient) call(ctx context.Context, prompt string, structured bool) (result0 string, err error) {
	_, span := observability.TraceAIFunction(ctx, "call_provider",
		attribute.String("ai.provider", c.provider.Code),
		attribute.String("ai.model", c.provider.Model),
		attribute.Int("prompt.length", len(prompt)),
		attribute.Bool("structured_output", structured),
	)
	defer observability.FinishSpan(span, &err)

	if c.provider.URL == "" {
		span.SetAttributes(attribute.String("call.result", "no_url_configured"))
		return "", contextutils.WrapError(contextutils.ErrAIConfigInvalid, "no base URL configured for provider")
	}
	if c.provider.Model == "" {
		span.SetAttributes(attribute.String("call.result", "empty_model"))
		return "", contextutils.WrapError(contextutils.ErrAIConfigInvalid, "model is required")
	}
	if prompt == "" {
		span.SetAttributes(attribute.String("call.result", "empty_prompt"))
		return "", contextutils.WrapError(contextutils.ErrAIConfigInvalid, "prompt cannot be empty")
	}

	reqBody := OpenAIRequest{
		Model:       c.provider.Model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: 0.7,
		MaxTokens:   c.provider.MaxTokens,
	}
	if structured {
		reqBody.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		span.SetAttributes(attribute.String("call.result", "marshal_failed"))
		return "", contextutils.WrapErrorf(err, "failed to marshal request body")
	}

	url := c.provider.URL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		span.SetAttributes(attribute.String("call.result", "request_creation_failed"))
		return "", contextutils.WrapErrorf(err, "failed to create HTTP request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "studyapp/1.0")
	if c.provider.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.provider.APIKey)
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Error(ctx, "AI HTTP request failed", err, map[string]interface{}{
			"duration": duration.String(),
			"url":      url,
		})
		span.SetAttributes(attribute.String("call.result", "http_request_failed"), attribute.String("duration", duration.String()))
		// Transport failures are indistinguishable from a sick upstream; retryable.
		return "", contextutils.WrapErrorf(contextutils.ErrAIProviderUnavailable, "HTTP request failed after %v: %v", duration, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn(ctx, "Failed to close response body", map[string]interface{}{
				"error": cerr.Error(),
			})
		}
	}()

	c.logger.Debug(ctx, "AI HTTP request completed", map[string]interface{}{
		"duration":    duration.String(),
		"status_code": resp.StatusCode,
	})

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.SetAttributes(attribute.String("call.result", "body_read_failed"))
		return "", contextutils.WrapErrorf(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		span.SetAttributes(attribute.String("call.result", "http_error"), attribute.Int("status_code", resp.StatusCode))
		if resp.StatusCode >= http.StatusInternalServerError {
			return "", contextutils.WrapErrorf(contextutils.ErrAIProviderUnavailable, "provider returned status %d: %s", resp.StatusCode, string(body))
		}
		return "", contextutils.WrapErrorf(contextutils.ErrAIRequestFailed, "API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var openAIResp OpenAIResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		span.SetAttributes(attribute.String("call.result", "json_unmarshal_failed"))
		return "", contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "failed to parse provider response: %w", err)
	}

	if openAIResp.Error != nil {
		span.SetAttributes(attribute.String("call.result", "api_error"), attribute.String("error_type", openAIResp.Error.Type))
		return "", contextutils.WrapErrorf(contextutils.ErrAIRequestFailed, "provider error: %s", openAIResp.Error.Message)
	}

	if len(openAIResp.Choices) == 0 {
		span.SetAttributes(attribute.String("call.result", "no_choices"))
		return "", contextutils.WrapError(contextutils.ErrAIResponseInvalid, "no response from provider")
	}

	content := openAIResp.Choices[0].Message.Content
	if content == "" {
		span.SetAttributes(attribute.String("call.result", "empty_content"))
		return "", contextutils.WrapError(contextutils.ErrAIResponseInvalid, "provider returned empty content")
	}

	span.SetAttributes(attribute.String("call.result", "success"), attribute.Int("content_length", len(content)))
	return content, nil
}
