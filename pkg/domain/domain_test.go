package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSubType(t *testing.T) {
	tests := []struct {
		name     string
		template Template
		want     SubType
		wantErr  error
	}{
		{"drone name lowercased", Template{Name: "Rust", Type: NodeTypeDrone}, "rust", nil},
		{"drone name without spaces", Template{Name: "Bobry W Locie", Type: NodeTypeDrone}, "bobrywlocie", nil},
		{"chat client", Template{Name: "Chat Client", Type: NodeTypeClient}, SubTypeChat, nil},
		{"web client", Template{Name: "Web Client", Type: NodeTypeClient}, SubTypeWeb, nil},
		{"text server", Template{Name: "Text Server", Type: NodeTypeServer}, SubTypeCommunication, nil},
		{"media server", Template{Name: "Media Server", Type: NodeTypeServer}, SubTypeContent, nil},
		{"explicit sub-type wins", Template{Name: "Anything", Type: NodeTypeServer, SubType: SubTypeContent}, SubTypeContent, nil},
		{"substring is not a keyword", Template{Name: "Webby Client", Type: NodeTypeClient}, "", ErrUnknownSubType},
		{"unnamed drone", Template{Type: NodeTypeDrone}, "", ErrUnknownSubType},
		{"edge is not placeable", Template{Name: "x", Type: NodeTypeEdge}, "", ErrInvalidNodeType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveSubType(tt.template)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTool(t *testing.T) {
	tool, err := ParseTool("plus")
	require.NoError(t, err)
	assert.Equal(t, ToolAdd, tool)

	_, err = ParseTool("delete")
	assert.ErrorIs(t, err, ErrInvalidTool)
}

func TestParseNodeType(t *testing.T) {
	nt, err := ParseNodeType(" Edge ")
	require.NoError(t, err)
	assert.Equal(t, NodeTypeEdge, nt)
	assert.False(t, nt.Placeable())

	_, err = ParseNodeType("router")
	assert.ErrorIs(t, err, ErrInvalidNodeType)
}

func TestNodeLabel(t *testing.T) {
	assert.Equal(t, "Drone 42", NodeLabel(NodeTypeDrone, 42))
	assert.Equal(t, "Client 7", NodeLabel(NodeTypeClient, 7))
}

func TestGraphEdge_Connects(t *testing.T) {
	e := NewEdge("10", "20")
	assert.Equal(t, "edge-10-20", e.ID)
	assert.True(t, e.Connects("20", "10"))
	assert.True(t, e.Touches("10"))
	assert.False(t, e.Connects("10", "30"))
}

func TestMessageDraft_Validate(t *testing.T) {
	t.Run("coerces form strings", func(t *testing.T) {
		d, err := MessageDraft{Type: "send-message", Payload: map[string]any{
			"id":      "3",
			"message": "hello",
			"extra":   1.5,
		}}.Validate()
		require.NoError(t, err)
		assert.Equal(t, int64(3), d.Payload["id"])
		assert.Equal(t, "hello", d.Payload["message"])
		assert.Equal(t, 1.5, d.Payload["extra"])
	})

	t.Run("missing mandatory field", func(t *testing.T) {
		_, err := MessageDraft{Type: "leave"}.Validate()
		assert.ErrorIs(t, err, ErrMissingField)
	})

	t.Run("file requests need a file name", func(t *testing.T) {
		for _, mt := range []string{"get-public-file", "get-private-file", "write-public-file", "write-private-file"} {
			_, err := MessageDraft{Type: mt}.Validate()
			assert.ErrorIs(t, err, ErrMissingField, mt)
		}
	})

	t.Run("file writes need content", func(t *testing.T) {
		_, err := MessageDraft{Type: "write-private-file", Payload: map[string]any{"file_name": "notes.txt"}}.Validate()
		assert.ErrorIs(t, err, ErrMissingField)

		d, err := MessageDraft{Type: "write-private-file", Payload: map[string]any{
			"file_name": "notes.txt",
			"content":   "hi",
		}}.Validate()
		require.NoError(t, err)
		assert.Equal(t, "notes.txt", d.Payload["file_name"])
	})

	t.Run("checkbox defaults to false", func(t *testing.T) {
		d, err := MessageDraft{Type: "create", Payload: map[string]any{"name": "room"}}.Validate()
		require.NoError(t, err)
		assert.Equal(t, false, d.Payload["public"])
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := MessageDraft{Type: "teleport"}.Validate()
		assert.ErrorIs(t, err, ErrUnknownMessageType)
	})

	t.Run("no type", func(t *testing.T) {
		_, err := MessageDraft{}.Validate()
		assert.ErrorIs(t, err, ErrMessageTypeRequired)
	})
}

func TestValidatePDR(t *testing.T) {
	assert.NoError(t, ValidatePDR(0))
	assert.NoError(t, ValidatePDR(1))
	assert.ErrorIs(t, ValidatePDR(1.01), ErrInvalidPDR)
	assert.ErrorIs(t, ValidatePDR(-0.1), ErrInvalidPDR)
}
