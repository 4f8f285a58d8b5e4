package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"sheetchat/internal"
	"sheetchat/internal/errors"
	"sheetchat/models"
	"sheetchat/ports"

	"google.golang.org/genai"
)

const (
	// MaxOutputTokens caps every reply; it is not user configurable.
	MaxOutputTokens = 2048

	providerGemini = "gemini"
)

// Config holds the Gemini client settings
type Config struct {
	APIKey  string
	Model   string
	BaseURL string // empty means the public endpoint
	Timeout time.Duration

	// HTTPClient overrides the transport; tests point it at httptest servers.
	HTTPClient *http.Client
}

// GeminiClient is the chat request wrapper: one stateless GenerateContent
// call per message, no history, no retries, no streaming.
type GeminiClient struct {
	config Config
	logger *internal.Logger

	mu     sync.Mutex
	client *genai.Client
}

var _ ports.ChatClient = (*GeminiClient)(nil)

// NewGeminiClient creates the wrapper. The SDK client is built on first use
// so a missing key only fails the request, never startup.
func NewGeminiClient(config Config, logger *internal.Logger) *GeminiClient {
	if strings.TrimSpace(config.Model) == "" {
		config.Model = "gemini-2.0-flash"
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &GeminiClient{config: config, logger: logger}
}

// Model returns the model every request is sent to
func (c *GeminiClient) Model() string {
	return c.config.Model
}

func (c *GeminiClient) sdk(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}
	if c.config.APIKey == "" {
		return nil, fmt.Errorf("missing Gemini API key")
	}

	cc := &genai.ClientConfig{
		APIKey:     c.config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.config.HTTPClient,
	}
	if c.config.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: c.config.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	c.client = client
	return client, nil
}

// Chat sends the message, with the dataset embedded as context, and returns the reply text.
func (c *GeminiClient) Chat(ctx context.Context, message string, data models.Dataset) (*models.ChatReply, error) {
	prompt, err := BuildPrompt(message, data)
	if err != nil {
		return nil, errors.Wrap(err, "build prompt")
	}

	client, err := c.sdk(ctx)
	if err != nil {
		c.logger.Error("[Gemini] %v", err)
		return nil, errors.ExternalServiceError(providerGemini, err)
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, c.config.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		MaxOutputTokens: MaxOutputTokens,
	})
	if err != nil {
		c.logger.Error("[Gemini] request failed after %s: %v", time.Since(start), err)
		return nil, errors.ExternalServiceError(providerGemini, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		err := fmt.Errorf("response has no candidates")
		c.logger.Error("[Gemini] %v", err)
		return nil, errors.ExternalServiceError(providerGemini, err)
	}

	c.logger.Debug("[Gemini] reply received in %s (prompt %d chars)", time.Since(start), len(prompt))

	reply := &models.ChatReply{Text: resp.Text()}
	if meta := resp.UsageMetadata; meta != nil {
		reply.Usage = &models.UsageData{
			PromptTokens:     int(meta.PromptTokenCount),
			CompletionTokens: int(meta.CandidatesTokenCount),
			TotalTokens:      int(meta.TotalTokenCount),
			Model:            c.config.Model,
			Provider:         providerGemini,
		}
	}
	return reply, nil
}

// MockChatClient is a mock chat client for testing
type MockChatClient struct {
	Response string // Set this for testing
	Error    error  // Set this to simulate errors

	// Block, when set, is waited on before answering so tests can observe
	// the in-flight state.
	Block chan struct{}

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records one Chat invocation
type MockCall struct {
	Message string
	Data    models.Dataset
}

func (m *MockChatClient) Chat(ctx context.Context, message string, data models.Dataset) (*models.ChatReply, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Message: message, Data: data})
	m.mu.Unlock()

	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Error != nil {
		return nil, m.Error
	}
	return &models.ChatReply{Text: m.Response}, nil
}

// Calls returns the recorded invocations
func (m *MockChatClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}
