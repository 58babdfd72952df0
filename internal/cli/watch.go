package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/meshpanel"
	"github.com/aretw0/meshpanel/pkg/domain"
)

// WatchOptions configures Watch.
type WatchOptions struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Watch polls the simulation topology and prints nodes and edges that appear or
// disappear, until ctx is cancelled. A failed poll is logged and retried on the next tick.
func Watch(ctx context.Context, panel *meshpanel.Panel, w io.Writer, opts WatchOptions) error {
	if opts.Interval <= 0 {
		opts.Interval = 2 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	prev := panel.Surface().Snapshot()
	printSystemMessage(w, "Watching %d nodes, %d edges.", len(prev.Nodes), len(prev.Edges))

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if err := panel.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("Topology poll failed", "err", err)
			continue
		}
		next := panel.Surface().Snapshot()
		for _, line := range diffTopology(prev, next) {
			fmt.Fprintln(w, line)
		}
		prev = next
	}
}

// diffTopology lists changes between two snapshots: additions with "+", removals with "-".
func diffTopology(prev, next domain.Topology) []string {
	var out []string

	prevNodes := make(map[string]domain.GraphNode, len(prev.Nodes))
	for _, n := range prev.Nodes {
		prevNodes[n.ID] = n
	}
	nextNodes := make(map[string]bool, len(next.Nodes))
	for _, n := range next.Nodes {
		nextNodes[n.ID] = true
		if _, ok := prevNodes[n.ID]; !ok {
			out = append(out, fmt.Sprintf("+ node %s (%s)", n.ID, n.Type))
		}
	}
	for _, n := range prev.Nodes {
		if !nextNodes[n.ID] {
			out = append(out, fmt.Sprintf("- node %s (%s)", n.ID, n.Type))
		}
	}

	prevEdges := make(map[string]bool, len(prev.Edges))
	for _, e := range prev.Edges {
		prevEdges[e.ID] = true
	}
	nextEdges := make(map[string]bool, len(next.Edges))
	for _, e := range next.Edges {
		nextEdges[e.ID] = true
		if !prevEdges[e.ID] {
			out = append(out, fmt.Sprintf("+ edge %s -- %s", e.Source, e.Target))
		}
	}
	for _, e := range prev.Edges {
		if !nextEdges[e.ID] {
			out = append(out, fmt.Sprintf("- edge %s -- %s", e.Source, e.Target))
		}
	}
	return out
}
