package domain

import "errors"

var (
	// ErrTemplateRequired is returned when a node is placed without a chosen template.
	ErrTemplateRequired = errors.New("select a specific node from the toolbar first")

	// ErrMessageTypeRequired is returned when a message gesture completes without a type.
	ErrMessageTypeRequired = errors.New("select a message type first")

	// ErrInvalidPDR is returned for a packet drop rate outside [0,1].
	ErrInvalidPDR = errors.New("packet drop rate must be between 0.0 and 1.0")

	ErrUnknownMessageType = errors.New("unknown message type")
	ErrMissingField       = errors.New("missing mandatory field")
	ErrUnknownSubType     = errors.New("cannot resolve node sub-type")
	ErrInvalidNodeType    = errors.New("invalid node type")
	ErrInvalidTool        = errors.New("invalid tool")
	ErrInvalidNodeID      = errors.New("invalid node id")

	// ErrNodeNotFound is returned when a node id is not on the graph surface.
	ErrNodeNotFound = errors.New("node not found")

	// ErrCreatedNodeNotFound is returned by ledger stores for unknown ids.
	ErrCreatedNodeNotFound = errors.New("created node not found")

	// ErrBackend wraps every non-2xx or transport failure from the simulation backend.
	ErrBackend = errors.New("backend request failed")
)
