/*
Package ports defines the driven ports (interfaces) of the meshpanel core.

These interfaces decouple the interaction state machine from the simulation backend,
the rendering surface and persistence, so the core can be exercised without a UI or a
live simulator.

# Key Interfaces

  - Gateway: the REST backend that owns the simulation (topology, nodes, edges, messages).
  - Surface: the graph surface the state machine mutates and highlights.
  - Notifier: user-visible warnings and errors.
  - LedgerStore: persistence for nodes created through the panel.
*/
package ports
