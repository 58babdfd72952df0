/*
Package domain contains the core domain models of the meshpanel control panel.

It defines the entities shared by the toolbar mode store, the interaction state
machine and the graph surface. This package is kept pure and free of I/O and persistence, following
the same hexagonal layout as the adapters that consume it.

# Key Entities

  - GraphNode / GraphEdge: the rendered topology mirror of the simulation.
  - Tool / NodeType / SubType: what a tap on the graph currently means.
  - TapEvent: a single operator tap, on a node or on the background.
  - MessageDraft: a protocol test message waiting for its two endpoints.
  - Template: a placeable node entry from the backend catalog.
*/
package domain
