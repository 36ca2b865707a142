package openai

import (
	"encoding/json"
	"strings"

	"github.com/resumeforge/resumeforge/internal/ailink/content"
	"github.com/resumeforge/resumeforge/internal/ailink/driver"
)

type chatCompletionResponse struct {
	Choices []choice `json:"choices"`
	Usage   *usage   `json:"usage,omitempty"`
}

type choice struct {
	Message      chatResponseMessage `json:"message"`
	FinishReason string              `json:"finish_reason"`
}

type chatResponseMessage struct {
	Content *string `json:"content"`
	Refusal string  `json:"refusal,omitempty"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// toDriverResponse returns a response without content blocks when the provider
// produced no choice or a null message; callers treat that as an empty reply.
func toDriverResponse(resp *chatCompletionResponse) *driver.Response {
	response := &driver.Response{}
	if resp == nil {
		return response
	}

	if resp.Usage != nil {
		response.Usage = &driver.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	if len(resp.Choices) == 0 {
		return response
	}
	choice := resp.Choices[0]
	response.FinishReason = choice.FinishReason
	if choice.Message.Content != nil {
		response.Content = []content.ContentBlock{{Type: content.ContentTypeText, Text: *choice.Message.Content}}
	}
	return response
}

// providerMessage extracts error.message from an OpenAI error body, falling
// back to the trimmed body text.
func providerMessage(body []byte) string {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		if msg := strings.TrimSpace(parsed.Error.Message); msg != "" {
			return msg
		}
	}
	return strings.TrimSpace(string(body))
}
