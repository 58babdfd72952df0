package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/meshpanel"
	"github.com/aretw0/meshpanel/internal/presentation/graph"
	"github.com/aretw0/meshpanel/internal/presentation/tui"
	"github.com/aretw0/meshpanel/pkg/domain"
	"golang.org/x/term"
)

// ErrQuit ends the REPL loop.
var ErrQuit = errors.New("quit")

// REPL drives a Panel from line commands, one gesture per line.
type REPL struct {
	panel       *meshpanel.Panel
	in          io.Reader
	out         io.Writer
	interactive bool
	render      func(string) (string, error)
	logsLimit   int
}

// REPLOption configures a REPL.
type REPLOption func(*REPL)

// WithLogsLimit caps the entries printed by the logs command.
func WithLogsLimit(n int) REPLOption {
	return func(r *REPL) {
		r.logsLimit = n
	}
}

// WithInteractive overrides terminal detection.
func WithInteractive(interactive bool) REPLOption {
	return func(r *REPL) {
		r.interactive = interactive
	}
}

// NewREPL creates a REPL. Prompts and markdown rendering are enabled only when in is a
// terminal, so piped scripts get plain output.
func NewREPL(panel *meshpanel.Panel, in io.Reader, out io.Writer, opts ...REPLOption) *REPL {
	r := &REPL{
		panel:     panel,
		in:        in,
		out:       out,
		logsLimit: 20,
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.interactive = true
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.interactive {
		r.render = tui.NewRenderer()
	}
	return r
}

// Run reads commands until EOF, quit, or ctx is cancelled.
func (r *REPL) Run(ctx context.Context) error {
	if r.interactive {
		tui.PrintBanner(r.out)
		printSystemMessage(r.out, "Type 'help' for commands.")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			readErr <- err
			return
		}
		readErr <- io.EOF
	}()

	for {
		r.prompt()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		case line := <-lines:
			err := r.Exec(ctx, line)
			if errors.Is(err, ErrQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintf(r.out, "error: %v\n", err)
			}
		}
	}
}

func (r *REPL) prompt() {
	if !r.interactive {
		return
	}
	snap := r.panel.Store().Snapshot()
	mode := string(snap.ActiveTool)
	if snap.SelectedNodeType != "" {
		mode += ":" + string(snap.SelectedNodeType)
	}
	if armed := r.panel.Machine().Armed(); armed != "" {
		mode += " @" + armed
	}
	fmt.Fprintf(r.out, "[%s]> ", mode)
}

// Exec runs one command line.
func (r *REPL) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit", "q":
		return ErrQuit
	case "help", "?":
		fmt.Fprint(r.out, helpText)
		return nil
	case "tool":
		return r.setTool(args)
	case "type":
		return r.setNodeType(args)
	case "template":
		return r.selectTemplate(args)
	case "catalog":
		return r.printCatalog()
	case "msg":
		return r.setMessage(args)
	case "tap":
		return r.tapAt(ctx, args)
	case "node":
		return r.tapNode(ctx, args)
	case "state":
		return r.printJSON(r.panel.Store().Snapshot())
	case "refresh":
		if err := r.panel.Refresh(ctx); err != nil {
			return err
		}
		topo := r.panel.Surface().Snapshot()
		printSystemMessage(r.out, "%d nodes, %d edges", len(topo.Nodes), len(topo.Edges))
		return nil
	case "graph":
		fmt.Fprint(r.out, graph.GenerateMermaid(r.panel.Surface().Snapshot()))
		return nil
	case "crash":
		if len(args) != 1 {
			return errors.New("usage: crash <id>")
		}
		if err := r.panel.CrashNode(ctx, args[0]); err != nil {
			return err
		}
		printSystemMessage(r.out, "Node %s crashed.", args[0])
		return nil
	case "unlink":
		if len(args) != 2 {
			return errors.New("usage: unlink <from> <to>")
		}
		return r.panel.RemoveEdge(ctx, args[0], args[1])
	case "pdr":
		return r.setPDR(ctx, args)
	case "detail":
		return r.printDetail(ctx, args)
	case "logs":
		level := ""
		if len(args) > 0 {
			level = args[0]
		}
		entries, err := r.panel.Logs(ctx, level, r.logsLimit)
		if err != nil {
			return err
		}
		fmt.Fprint(r.out, tui.LogsText(entries))
		return nil
	case "config":
		return r.config(ctx, args)
	case "created":
		nodes, err := r.panel.CreatedNodes(ctx)
		if err != nil {
			return err
		}
		return r.printJSON(nodes)
	default:
		return fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
}

func (r *REPL) setTool(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: tool <cursor|add|message>")
	}
	tool, err := domain.ParseTool(args[0])
	if err != nil {
		return err
	}
	r.panel.Store().SetActiveTool(tool)
	return nil
}

func (r *REPL) setNodeType(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: type <drone|client|server|edge>")
	}
	nodeType, err := domain.ParseNodeType(args[0])
	if err != nil {
		return err
	}
	r.panel.Store().SetSelectedNodeType(nodeType)
	return nil
}

func (r *REPL) selectTemplate(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: template <name>")
	}
	name := strings.Join(args, " ")
	store := r.panel.Store()
	for _, tpl := range store.Snapshot().AvailableNodes {
		if strings.EqualFold(tpl.Name, name) {
			store.SetSelectedSpecificNode(&tpl)
			return nil
		}
	}
	return fmt.Errorf("unknown template %q", name)
}

func (r *REPL) printCatalog() error {
	for _, tpl := range r.panel.Store().Snapshot().AvailableNodes {
		fmt.Fprintf(r.out, "%-8s %s\n", tpl.Type, tpl.Name)
	}
	for _, spec := range domain.MessageCatalog() {
		fmt.Fprintf(r.out, "msg      %-20s %s\n", spec.Type, spec.Name)
	}
	return nil
}

// setMessage handles "msg <type> [key=value...]": it switches to the message tool and
// starts node selection.
func (r *REPL) setMessage(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: msg <type> [key=value...]")
	}
	if _, err := domain.LookupMessage(args[0]); err != nil {
		return err
	}
	payload := make(map[string]any, len(args)-1)
	for _, kv := range args[1:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return fmt.Errorf("invalid payload entry %q, want key=value", kv)
		}
		payload[k] = v
	}

	store := r.panel.Store()
	store.SetActiveTool(domain.ToolMessage)
	store.SetSelectedMessageType(args[0])
	store.SetMessageFormData(payload)
	store.SetIsSelectingNodes(true)
	return nil
}

func (r *REPL) tapAt(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: tap <x> <y>")
	}
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid x: %w", err)
	}
	y, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid y: %w", err)
	}
	out, err := r.panel.TapAt(ctx, domain.Position{X: x, Y: y})
	fmt.Fprintln(r.out, out)
	return err
}

func (r *REPL) tapNode(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: node <id>")
	}
	out, err := r.panel.TapNode(ctx, args[0])
	fmt.Fprintln(r.out, out)
	return err
}

func (r *REPL) setPDR(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: pdr <id> <rate>")
	}
	pdr, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid rate: %w", err)
	}
	return r.panel.SetPacketDropRate(ctx, args[0], pdr)
}

func (r *REPL) printDetail(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: detail <id>")
	}
	detail, err := r.panel.NodeDetail(ctx, args[0])
	if err != nil {
		return err
	}
	md := tui.NodeDetailMarkdown(detail)
	if r.render != nil {
		if out, err := r.render(md); err == nil {
			md = out
		}
	}
	fmt.Fprint(r.out, md)
	return nil
}

func (r *REPL) config(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "list" {
		configs, err := r.panel.Configurations(ctx)
		if err != nil {
			return err
		}
		sort.Slice(configs, func(i, j int) bool { return configs[i].ID < configs[j].ID })
		for _, c := range configs {
			marker := " "
			if c.Active {
				marker = "*"
			}
			fmt.Fprintf(r.out, "%s %-12s %s\n", marker, c.ID, c.Name)
		}
		return nil
	}
	if args[0] == "apply" && len(args) == 2 {
		return r.panel.ApplyConfiguration(ctx, args[1])
	}
	return errors.New("usage: config [list | apply <id>]")
}

func (r *REPL) printJSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

const helpText = `Commands:
  tool <cursor|add|message>      switch tool
  type <drone|client|server|edge> choose what the add tool places
  template <name>                pick a catalog entry
  catalog                        list templates and message types
  msg <type> [key=value...]      prepare a message and select endpoints
  tap <x> <y>                    tap the empty canvas
  node <id>                      tap a node
  state                          print the toolbar state
  refresh                        reload the topology
  graph                          print the topology as Mermaid
  crash <id>                     crash a node
  unlink <from> <to>             remove an edge
  pdr <id> <rate>                set a drone's packet drop rate
  detail <id>                    show a node's statistics
  logs [level]                   show simulation logs, newest first
  config [list | apply <id>]     list or apply topology presets
  created                        list nodes placed from this panel
  quit                           leave
`
