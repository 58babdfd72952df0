package toolbar

import (
	"maps"
	"sync"

	"github.com/aretw0/meshpanel/pkg/domain"
)

// ChangeKind identifies which part of the mode changed.
type ChangeKind string

const (
	ChangeTool     ChangeKind = "tool"
	ChangeNodeType ChangeKind = "node_type"
	ChangeTemplate ChangeKind = "template"
	ChangeCatalog  ChangeKind = "catalog"
	ChangeMessage  ChangeKind = "message"
	ChangeFromNode ChangeKind = "from_node"
	ChangeCreated  ChangeKind = "created"
)

// Change is delivered to listeners after a mutation, with the state it produced.
type Change struct {
	Kind     ChangeKind `json:"kind"`
	Snapshot Snapshot   `json:"snapshot"`
}

// Listener observes store mutations.
type Listener func(Change)

// Snapshot is a copy of the mode at one point in time.
type Snapshot struct {
	ActiveTool           domain.Tool          `json:"active_tool"`
	SelectedNodeType     domain.NodeType      `json:"selected_node_type,omitempty"`
	SelectedSpecificNode *domain.Template     `json:"selected_specific_node,omitempty"`
	AvailableNodes       []domain.Template    `json:"available_nodes"`
	SelectedMessageType  string               `json:"selected_message_type,omitempty"`
	MessageFormData      map[string]any       `json:"message_form_data,omitempty"`
	IsSelectingNodes     bool                 `json:"is_selecting_nodes"`
	SelectedFromNode     string               `json:"selected_from_node,omitempty"`
	CreatedNodes         []domain.CreatedNode `json:"created_nodes,omitempty"`
}

// Draft returns the message draft held by the snapshot.
func (s Snapshot) Draft() domain.MessageDraft {
	return domain.MessageDraft{Type: s.SelectedMessageType, Payload: maps.Clone(s.MessageFormData)}
}

// Store is the toolbar mode store. Safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	state Snapshot

	lmu       sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// NewStore creates a store with the cursor tool active.
func NewStore() *Store {
	return &Store{
		state:     Snapshot{ActiveTool: domain.ToolCursor, AvailableNodes: []domain.Template{}},
		listeners: make(map[int]Listener),
	}
}

// Subscribe registers a listener and returns its unsubscribe function.
func (s *Store) Subscribe(l Listener) func() {
	s.lmu.Lock()
	defer s.lmu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.lmu.Lock()
		defer s.lmu.Unlock()
		delete(s.listeners, id)
	}
}

// Snapshot returns a copy of the current mode.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

func (s *Store) copyLocked() Snapshot {
	out := s.state
	if s.state.SelectedSpecificNode != nil {
		tpl := *s.state.SelectedSpecificNode
		out.SelectedSpecificNode = &tpl
	}
	out.AvailableNodes = append([]domain.Template(nil), s.state.AvailableNodes...)
	out.MessageFormData = maps.Clone(s.state.MessageFormData)
	out.CreatedNodes = append([]domain.CreatedNode(nil), s.state.CreatedNodes...)
	return out
}

// update applies fn under the lock and then notifies listeners with the result.
func (s *Store) update(kind ChangeKind, fn func(st *Snapshot)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.copyLocked()
	s.mu.Unlock()

	s.lmu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for i := 0; i < s.nextID; i++ {
		if l, ok := s.listeners[i]; ok {
			listeners = append(listeners, l)
		}
	}
	s.lmu.Unlock()

	change := Change{Kind: kind, Snapshot: snap}
	for _, l := range listeners {
		l(change)
	}
}

// SetActiveTool switches the tool. Leaving add clears the node type and template;
// leaving message clears the whole message gesture.
func (s *Store) SetActiveTool(tool domain.Tool) {
	s.update(ChangeTool, func(st *Snapshot) {
		prev := st.ActiveTool
		st.ActiveTool = tool
		if tool != domain.ToolAdd {
			st.SelectedNodeType = ""
			st.SelectedSpecificNode = nil
		}
		if prev == domain.ToolMessage && tool != domain.ToolMessage {
			clearMessage(st)
		}
	})
}

// SetSelectedNodeType sets the type being placed and always clears the template.
// The empty type clears the selection.
func (s *Store) SetSelectedNodeType(nodeType domain.NodeType) {
	s.update(ChangeNodeType, func(st *Snapshot) {
		st.SelectedNodeType = nodeType
		st.SelectedSpecificNode = nil
	})
}

// SetSelectedSpecificNode sets the template to place. Nil clears it.
func (s *Store) SetSelectedSpecificNode(tpl *domain.Template) {
	s.update(ChangeTemplate, func(st *Snapshot) {
		if tpl == nil {
			st.SelectedSpecificNode = nil
			return
		}
		c := *tpl
		st.SelectedSpecificNode = &c
	})
}

// SetAvailableNodes replaces the catalog of placeable templates.
func (s *Store) SetAvailableNodes(nodes []domain.Template) {
	s.update(ChangeCatalog, func(st *Snapshot) {
		st.AvailableNodes = append([]domain.Template{}, nodes...)
	})
}

// ResetPlacement clears the node type and template after a one-shot placement.
func (s *Store) ResetPlacement() {
	s.update(ChangeNodeType, func(st *Snapshot) {
		st.SelectedNodeType = ""
		st.SelectedSpecificNode = nil
	})
}

// SetSelectedMessageType sets the message type of the draft.
func (s *Store) SetSelectedMessageType(messageType string) {
	s.update(ChangeMessage, func(st *Snapshot) {
		st.SelectedMessageType = messageType
	})
}

// SetMessageFormData replaces the draft payload with a copy of data.
func (s *Store) SetMessageFormData(data map[string]any) {
	s.update(ChangeMessage, func(st *Snapshot) {
		st.MessageFormData = maps.Clone(data)
	})
}

// SetIsSelectingNodes starts or stops endpoint selection for the message tool.
func (s *Store) SetIsSelectingNodes(selecting bool) {
	s.update(ChangeMessage, func(st *Snapshot) {
		st.IsSelectingNodes = selecting
	})
}

// SetSelectedFromNode records the sender of the message gesture. The empty id clears it.
func (s *Store) SetSelectedFromNode(id string) {
	s.update(ChangeFromNode, func(st *Snapshot) {
		st.SelectedFromNode = id
	})
}

// ResetMessageState clears the message type, draft payload and node selection.
func (s *Store) ResetMessageState() {
	s.update(ChangeMessage, clearMessage)
}

func clearMessage(st *Snapshot) {
	st.SelectedMessageType = ""
	st.MessageFormData = nil
	st.IsSelectingNodes = false
	st.SelectedFromNode = ""
}

// AddCreatedNode tracks a node placed through the panel.
func (s *Store) AddCreatedNode(n domain.CreatedNode) {
	s.update(ChangeCreated, func(st *Snapshot) {
		st.CreatedNodes = append(st.CreatedNodes, n)
	})
}

// CreatedNodes returns the nodes placed through the panel in this process.
func (s *Store) CreatedNodes() []domain.CreatedNode {
	return s.Snapshot().CreatedNodes
}
