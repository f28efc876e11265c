package model

import (
	"encoding/json"

	"github.com/Rubix982/triage/pkg/domain/types"
)

// PayloadKind is the discriminator of the Payload variant
type PayloadKind string

const (
	PayloadTicket   PayloadKind = "ticket"
	PayloadDocument PayloadKind = "document"
	PayloadMessage  PayloadKind = "message"
	PayloadOpaque   PayloadKind = "opaque"
)

// Payload is a tagged variant over platform payload blobs, keyed by content type.
// Unrecognized payloads fall back to opaque bytes so callers never need to
// introspect raw platform JSON.
type Payload struct {
	Kind     PayloadKind      `json:"kind"`
	Ticket   *TicketPayload   `json:"ticket,omitempty"`
	Document *DocumentPayload `json:"document,omitempty"`
	Message  *MessagePayload  `json:"message,omitempty"`
	Opaque   json.RawMessage  `json:"opaque,omitempty"`
}

// TicketPayload holds the structured fields of a ticket-shaped fragment
type TicketPayload struct {
	Project  string   `json:"project,omitempty"`
	Key      string   `json:"key,omitempty"`
	Priority string   `json:"priority,omitempty"`
	Labels   []string `json:"labels,omitempty"`
	Assignee string   `json:"assignee,omitempty"`
}

// DocumentPayload holds the structured fields of a document-shaped fragment
type DocumentPayload struct {
	Space     string `json:"space,omitempty"`
	ParentURL string `json:"parent_url,omitempty"`
}

// MessagePayload holds the structured fields of a chat-message fragment
type MessagePayload struct {
	ChannelID string `json:"channel_id,omitempty"`
	ThreadID  string `json:"thread_id,omitempty"`
}

// DecodePayload interprets a raw platform blob according to the content type.
// Blobs that fail to decode into the typed shape are retained as opaque bytes.
func DecodePayload(contentType types.ContentType, raw json.RawMessage) Payload {
	if len(raw) == 0 {
		return Payload{Kind: PayloadOpaque}
	}

	switch contentType {
	case types.ContentTypeTicket:
		var t TicketPayload
		if err := json.Unmarshal(raw, &t); err == nil {
			return Payload{Kind: PayloadTicket, Ticket: &t}
		}
	case types.ContentTypeDocument:
		var d DocumentPayload
		if err := json.Unmarshal(raw, &d); err == nil {
			return Payload{Kind: PayloadDocument, Document: &d}
		}
	case types.ContentTypeMessage, types.ContentTypeComment:
		var m MessagePayload
		if err := json.Unmarshal(raw, &m); err == nil {
			return Payload{Kind: PayloadMessage, Message: &m}
		}
	}

	return Payload{Kind: PayloadOpaque, Opaque: raw}
}
