package agent

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/neo/convogen/internal/logging"
	"github.com/sashabaranov/go-openai"
)

// ChatMessage is a role-tagged prompt message handed to the provider
type ChatMessage struct {
	Role    string
	Content string
}

// Completer issues one chat completion request. Implementations own retry
// and timeout handling; a returned error means the call is irrecoverable.
type Completer interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

// ClientConfig holds provider settings for one role's completion calls
type ClientConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	MaxRetries  int
	Timeout     time.Duration
}

// Client wraps the OpenAI chat completion API with a bounded timeout and a
// small exponential-backoff retry budget for transient failures.
type Client struct {
	client *openai.Client
	config ClientConfig
}

// NewClient creates a completion client for one role
func NewClient(config ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Complete issues one chat completion, retrying transient failures with
// exponential backoff up to the configured budget.
func (c *Client) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	llmMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		llmMessages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	var result string
	err := c.doWithRetry(ctx, func(callCtx context.Context) error {
		resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model:       c.config.Model,
			Messages:    llmMessages,
			Temperature: c.config.Temperature,
			MaxTokens:   c.config.MaxTokens,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			return fmt.Errorf("empty completion response")
		}
		result = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("completion failed after %d retries: %v", c.config.MaxRetries, err)
	}

	return result, nil
}

// doWithRetry executes fn with a per-attempt timeout and exponential backoff
func (c *Client) doWithRetry(ctx context.Context, fn func(context.Context) error) error {
	attempts := c.config.MaxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
		err := fn(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		// The run was cancelled; backing off will not help
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt < attempts-1 {
			waitTime := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			logging.Debug("Completion call failed, retrying", map[string]interface{}{
				"attempt":   attempt + 1,
				"wait_time": waitTime,
				"model":     c.config.Model,
				"error":     err,
			})
			select {
			case <-time.After(waitTime):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}
