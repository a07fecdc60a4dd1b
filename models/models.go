package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the author of a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Artifact is an opaque record attached to an assistant response
type Artifact map[string]any

// Message represents one turn in the conversation
type Message struct {
	ID        uuid.UUID  `json:"id"`
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Images    []string   `json:"images,omitempty"`
	Videos    []string   `json:"videos,omitempty"`
	Code      string     `json:"code,omitempty"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
	Action    Action     `json:"action,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Clone returns a copy that shares no slices with m
func (m Message) Clone() Message {
	out := m
	out.Images = cloneStrings(m.Images)
	out.Videos = cloneStrings(m.Videos)
	if m.Artifacts != nil {
		out.Artifacts = make([]Artifact, len(m.Artifacts))
		for i, a := range m.Artifacts {
			cp := make(Artifact, len(a))
			for k, v := range a {
				cp[k] = v
			}
			out.Artifacts[i] = cp
		}
	}
	return out
}

// File is an attachment sent along with a prompt
type File struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// Request is what the chat sends to the model service
type Request struct {
	Text   string
	Action Action
	Files  []File
}

// Response is the normalized result of a model invocation
type Response struct {
	Text      string     `json:"text"`
	Images    []string   `json:"images,omitempty"`
	Videos    []string   `json:"videos,omitempty"`
	Code      string     `json:"code,omitempty"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// SendMessageRequest is the JSON request body for sending a message
type SendMessageRequest struct {
	Text   string `json:"text"`
	Action string `json:"action"`
}

// ChatResponse is the response for a chat message
type ChatResponse struct {
	UserMessage      Message `json:"user_message"`
	AssistantMessage Message `json:"assistant_message"`
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
