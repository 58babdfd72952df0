package domain

import (
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// FieldKind is the form input kind of a message field.
type FieldKind string

const (
	FieldNumber FieldKind = "number"
	FieldText   FieldKind = "text"
	FieldBool   FieldKind = "checkbox"
)

// MessageField describes one payload entry of a protocol message.
type MessageField struct {
	ID        string    `json:"id" mapstructure:"id"`
	Name      string    `json:"name" mapstructure:"name"`
	Kind      FieldKind `json:"type" mapstructure:"type"`
	Mandatory bool      `json:"mandatory" mapstructure:"mandatory"`
}

// MessageSpec describes a protocol test message the backend accepts.
// Type is also the endpoint slug under messages/.
type MessageSpec struct {
	Type   string         `json:"type"`
	Name   string         `json:"name"`
	Group  string         `json:"group"`
	Fields []MessageField `json:"fields,omitempty"`
}

// MessageDraft is the message type plus the payload gathered from the form.
type MessageDraft struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

var (
	chatID      = MessageField{ID: "id", Name: "Chat ID", Kind: FieldNumber, Mandatory: true}
	fileName    = MessageField{ID: "file_name", Name: "File Name", Kind: FieldText, Mandatory: true}
	fileContent = MessageField{ID: "content", Name: "File Content", Kind: FieldText, Mandatory: true}
)

var messageCatalog = []MessageSpec{
	{Type: "server-type", Name: "Request Server Type", Group: "common"},

	{Type: "join", Name: "Join", Group: "chat", Fields: []MessageField{
		chatID,
		{ID: "password", Name: "Password", Kind: FieldText},
	}},
	{Type: "leave", Name: "Leave", Group: "chat", Fields: []MessageField{chatID}},
	{Type: "send-message", Name: "Send Message", Group: "chat", Fields: []MessageField{
		chatID,
		{ID: "message", Name: "Message", Kind: FieldText, Mandatory: true},
	}},
	{Type: "create", Name: "Create", Group: "chat", Fields: []MessageField{
		{ID: "name", Name: "Chat Name", Kind: FieldText, Mandatory: true},
		{ID: "public", Name: "Public", Kind: FieldBool, Mandatory: true},
		{ID: "password", Name: "Password", Kind: FieldText},
	}},
	{Type: "delete", Name: "Delete", Group: "chat", Fields: []MessageField{chatID}},
	{Type: "get-chats", Name: "Get Chats", Group: "chat"},
	{Type: "get-messages", Name: "Get Messages", Group: "chat", Fields: []MessageField{
		{ID: "chat_id", Name: "Chat ID", Kind: FieldNumber, Mandatory: true},
	}},

	{Type: "list-public-files", Name: "List Public Files", Group: "web"},
	{Type: "get-public-file", Name: "Get Public File", Group: "web", Fields: []MessageField{fileName}},
	{Type: "write-public-file", Name: "Write Public File", Group: "web", Fields: []MessageField{
		fileName,
		fileContent,
	}},
	{Type: "list-private-files", Name: "List Private Files", Group: "web"},
	{Type: "get-private-file", Name: "Get Private File", Group: "web", Fields: []MessageField{fileName}},
	{Type: "write-private-file", Name: "Write Private File", Group: "web", Fields: []MessageField{
		fileName,
		fileContent,
	}},
}

// MessageCatalog returns every known message type.
func MessageCatalog() []MessageSpec {
	out := make([]MessageSpec, len(messageCatalog))
	copy(out, messageCatalog)
	return out
}

// LookupMessage finds the MessageSpec of a message type.
func LookupMessage(messageType string) (MessageSpec, error) {
	for _, spec := range messageCatalog {
		if spec.Type == messageType {
			return spec, nil
		}
	}
	return MessageSpec{}, fmt.Errorf("%w: %q", ErrUnknownMessageType, messageType)
}

// NormalizePayload checks mandatory fields and coerces form values to the field kinds
// (form inputs usually arrive as strings). Keys without a field pass through.
func (s MessageSpec) NormalizePayload(payload map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}

	for _, f := range s.Fields {
		raw, ok := payload[f.ID]
		if !ok || raw == nil || raw == "" {
			if f.Mandatory && f.Kind != FieldBool {
				return nil, fmt.Errorf("%w: %s (%s)", ErrMissingField, f.Name, f.ID)
			}
			if f.Kind == FieldBool {
				out[f.ID] = false
			}
			continue
		}

		var err error
		switch f.Kind {
		case FieldNumber:
			var n int64
			err = mapstructure.WeakDecode(raw, &n)
			out[f.ID] = n
		case FieldBool:
			var b bool
			err = mapstructure.WeakDecode(raw, &b)
			out[f.ID] = b
		default:
			var str string
			err = mapstructure.WeakDecode(raw, &str)
			out[f.ID] = str
		}
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.ID, err)
		}
	}
	return out, nil
}

// Validate resolves the draft's message type and normalizes its payload.
func (d MessageDraft) Validate() (MessageDraft, error) {
	if d.Type == "" {
		return MessageDraft{}, ErrMessageTypeRequired
	}
	spec, err := LookupMessage(d.Type)
	if err != nil {
		return MessageDraft{}, err
	}
	payload, err := spec.NormalizePayload(d.Payload)
	if err != nil {
		return MessageDraft{}, err
	}
	return MessageDraft{Type: d.Type, Payload: payload}, nil
}

// PayloadKeys returns the draft payload keys in sorted order.
func (d MessageDraft) PayloadKeys() []string {
	keys := make([]string, 0, len(d.Payload))
	for k := range d.Payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
