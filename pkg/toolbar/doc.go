/*
Package toolbar holds the process-wide toolbar mode: the single source of truth for
what a tap on the graph currently means.

The Store is mutated by the toolbar front-ends (HTTP, REPL, MCP) and read by the
interaction state machine. Every mutation notifies subscribers synchronously, which is
how the state machine keeps its armed endpoint consistent with tool switches.
*/
package toolbar
