/*
Package meshpanel is the control panel core for a drone network simulation.

An operator edits a live network topology by tapping a graph: placing drones, clients
and servers, linking them, and sending protocol test messages between them. The panel
keeps the interaction state (toolbar mode, armed endpoint, highlight) and drives an
external simulation backend, which owns the real network.

# Architecture

The package follows a hexagonal layout. The core never talks HTTP directly:

  - pkg/toolbar holds the mode (tool, node type, template, message draft).
  - pkg/interaction interprets taps against that mode.
  - pkg/surface is the rendered element set the machine mutates.
  - pkg/ports declares the backend Gateway, the Surface, the Notifier and the LedgerStore.
  - pkg/adapters provide the REST backend, an in-memory simulator, ledgers and the
    HTTP/MCP front doors.

# Usage

	gw := rest.New("http://localhost:3000")
	panel := meshpanel.New(gw, meshpanel.WithLogger(logger))
	defer panel.Close()

	if err := panel.Refresh(ctx); err != nil {
		log.Println(err)
	}

	store := panel.Store()
	store.SetActiveTool(domain.ToolAdd)
	store.SetSelectedNodeType(domain.NodeTypeDrone)
	store.SetSelectedSpecificNode(&domain.Template{Name: "Rust", Type: domain.NodeTypeDrone})

	outcome, err := panel.TapAt(ctx, domain.Position{X: 120, Y: 80})

Gestures fail closed: a backend error is reported through the Notifier and the panel
returns to the state it had before the gesture started.
*/
package meshpanel
