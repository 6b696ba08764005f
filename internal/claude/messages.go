package claude

import (
	"encoding/json"
	"fmt"
)

// Role values accepted by the Messages API.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Content block discriminators.
const (
	ContentTypeText    = "text"
	ContentTypeToolUse = "tool_use"
)

// Message is one turn of a Messages API conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Tool describes a tool the model may call, with a JSON schema for its input.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// ToolChoice forces or steers the model's tool selection.
type ToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// MessagesRequest is the Messages API request body.
type MessagesRequest struct {
	Model      string      `json:"model"`
	MaxTokens  int         `json:"max_tokens"`
	System     string      `json:"system,omitempty"`
	Messages   []Message   `json:"messages"`
	Tools      []Tool      `json:"tools,omitempty"`
	ToolChoice *ToolChoice `json:"tool_choice,omitempty"`
}

// ContentBlock is one element of the response content array. The API returns
// a tagged union discriminated by "type"; blocks of an unknown type decode
// with only Type populated so new block kinds do not break the client.
type ContentBlock struct {
	Type string

	// Populated for "text" blocks.
	Text string

	// Populated for "tool_use" blocks. Input is kept raw: each agent owns
	// the schema of its tool and decodes the payload itself.
	ToolUseID string
	ToolName  string
	Input     json.RawMessage
}

// UnmarshalJSON decodes a content block according to its "type" tag.
func (b *ContentBlock) UnmarshalJSON(data []byte) error {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("content block has no type tag: %w", err)
	}

	switch tag.Type {
	case ContentTypeText:
		var block struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(data, &block); err != nil {
			return fmt.Errorf("malformed text block: %w", err)
		}
		*b = ContentBlock{Type: ContentTypeText, Text: block.Text}
	case ContentTypeToolUse:
		var block struct {
			ID    string          `json:"id"`
			Name  string          `json:"name"`
			Input json.RawMessage `json:"input"`
		}
		if err := json.Unmarshal(data, &block); err != nil {
			return fmt.Errorf("malformed tool_use block: %w", err)
		}
		*b = ContentBlock{Type: ContentTypeToolUse, ToolUseID: block.ID, ToolName: block.Name, Input: block.Input}
	default:
		*b = ContentBlock{Type: tag.Type}
	}
	return nil
}

// Usage reports the token accounting of one API call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// MessagesResponse is the Messages API response body.
type MessagesResponse struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	Role       string         `json:"role"`
	StopReason string         `json:"stop_reason"`
	Content    []ContentBlock `json:"content"`
	Usage      Usage          `json:"usage"`
}

// ToolInput returns the input payload of the first tool_use block invoking
// the named tool.
func (r *MessagesResponse) ToolInput(toolName string) (json.RawMessage, error) {
	for _, block := range r.Content {
		if block.Type == ContentTypeToolUse && block.ToolName == toolName {
			return block.Input, nil
		}
	}
	return nil, fmt.Errorf("response contains no %q tool call (stop_reason=%s)", toolName, r.StopReason)
}

// CombinedText concatenates all text blocks of the response.
func (r *MessagesResponse) CombinedText() string {
	var out string
	for _, block := range r.Content {
		if block.Type == ContentTypeText {
			out += block.Text
		}
	}
	return out
}

// apiError is the error envelope the API returns on non-2xx responses.
type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
