package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/vulnsmith/pkg/shared/config"
	"github.com/scan-io-git/vulnsmith/pkg/shared/httpclient"
)

const (
	apiKeyEnv        = "ANTHROPIC_API_KEY"
	anthropicVersion = "2023-06-01"
	messagesPath     = "/v1/messages"
)

// Client talks to the Anthropic Messages API.
type Client struct {
	resty     *resty.Client
	logger    hclog.Logger
	model     string
	maxTokens int
}

// NewClient builds a Messages API client. The API key is read from the
// ANTHROPIC_API_KEY environment variable, never from the config file.
func NewClient(logger hclog.Logger, cfg *config.Config) (*Client, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%s environment variable is not set", apiKeyEnv)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	defaults := config.DefaultClaudeConfig()
	claudeCfg := defaults
	if cfg != nil {
		claudeCfg.BaseURL = config.SetThen(cfg.Claude.BaseURL, defaults.BaseURL)
		claudeCfg.Model = config.SetThen(cfg.Claude.Model, defaults.Model)
		claudeCfg.MaxTokens = config.SetThen(cfg.Claude.MaxTokens, defaults.MaxTokens)
	}

	restyClient := httpclient.InitializeRestyClient(logger, cfg)
	restyClient.
		SetBaseURL(claudeCfg.BaseURL).
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", anthropicVersion).
		SetHeader("content-type", "application/json")

	return &Client{
		resty:     restyClient,
		logger:    logger,
		model:     claudeCfg.Model,
		maxTokens: claudeCfg.MaxTokens,
	}, nil
}

// CreateMessage performs one Messages API call.
func (c *Client) CreateMessage(ctx context.Context, req *MessagesRequest) (*MessagesResponse, error) {
	if req.Model == "" {
		req.Model = c.model
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = c.maxTokens
	}

	resp, err := c.resty.R().
		SetContext(ctx).
		SetBody(req).
		Post(messagesPath)
	if err != nil {
		return nil, fmt.Errorf("messages API request failed: %w", err)
	}
	if resp.IsError() {
		var envelope apiError
		if err := json.Unmarshal(resp.Body(), &envelope); err == nil && envelope.Error.Message != "" {
			return nil, fmt.Errorf("messages API returned %s: %s (%s)",
				resp.Status(), envelope.Error.Message, envelope.Error.Type)
		}
		return nil, fmt.Errorf("messages API returned %s", resp.Status())
	}

	var result MessagesResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode messages API response: %w", err)
	}

	c.logger.Debug("messages API call finished",
		"model", result.Model,
		"stop_reason", result.StopReason,
		"input_tokens", result.Usage.InputTokens,
		"output_tokens", result.Usage.OutputTokens)
	return &result, nil
}

// RunTool sends one user message with a single forced tool and returns the
// raw input payload of the resulting tool call.
func (c *Client) RunTool(ctx context.Context, system, prompt string, tool Tool) (json.RawMessage, error) {
	req := &MessagesRequest{
		System:     system,
		Messages:   []Message{{Role: RoleUser, Content: prompt}},
		Tools:      []Tool{tool},
		ToolChoice: &ToolChoice{Type: "tool", Name: tool.Name},
	}

	resp, err := c.CreateMessage(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.ToolInput(tool.Name)
}
