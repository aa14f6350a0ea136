package llm

import "encoding/json"

// Message represents a single message in a chat conversation.
// Content is used for plain text messages; Parts is used for multimodal
// messages (text plus image data) and takes precedence when non-empty.
type Message struct {
	Role    string
	Content string
	Parts   []ContentPart
}

// ContentPart is one element of a multimodal message.
type ContentPart struct {
	Type     string    `json:"type"` // "text" or "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL carries image content, typically as a base64 data URI.
type ImageURL struct {
	URL string `json:"url"`
}

// MarshalJSON encodes the message with either a plain string content or a
// content-part array, matching the OpenAI-compatible wire format.
func (m Message) MarshalJSON() ([]byte, error) {
	if len(m.Parts) > 0 {
		return json.Marshal(struct {
			Role    string        `json:"role"`
			Content []ContentPart `json:"content"`
		}{Role: m.Role, Content: m.Parts})
	}
	return json.Marshal(struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{Role: m.Role, Content: m.Content})
}

// ChatParams holds per-request generation parameters.
// Zero values fall back to the client's defaults.
type ChatParams struct {
	Model       string
	MaxTokens   int
	Temperature float64
}
