/*
Package interaction implements the tap-driven graph-editing state machine.

A Machine interprets one tap at a time against the toolbar mode and its own armed
endpoint:

  - cursor: a node tap selects the node (details panel), nothing else.
  - add + node type: a background tap with a chosen template creates a node.
  - add + edge: two node taps link the nodes; re-tapping the armed node cancels.
  - message + selecting: two node taps send the drafted message.

Any tool or node-type change clears the armed endpoint and every highlight, so a
gesture abandoned half-way can never be completed by unrelated taps later.
*/
package interaction
