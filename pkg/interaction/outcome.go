package interaction

// Outcome reports what a tap did.
type Outcome string

const (
	OutcomeIgnored     Outcome = "ignored"
	OutcomeSelected    Outcome = "selected"
	OutcomeArmed       Outcome = "armed"
	OutcomeDisarmed    Outcome = "disarmed"
	OutcomeNodeCreated Outcome = "node_created"
	OutcomeEdgeCreated Outcome = "edge_created"
	OutcomeMessageSent Outcome = "message_sent"
	OutcomeRejected    Outcome = "rejected"
	OutcomeFailed      Outcome = "failed"
)

// Gesture names a multi-step interaction, used in logs, hooks and metrics.
type Gesture string

const (
	GesturePlaceNode   Gesture = "place_node"
	GestureLinkEdge    Gesture = "link_edge"
	GestureSendMessage Gesture = "send_message"
)
