package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/eventlight-labs/eventql/pkg/query"
)

// NewReplCommand creates the repl command.
func NewReplCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive query shell",
		Long: `Start an interactive query shell.

Statements accumulate until a terminating semicolon, then the whole
script so far is evaluated and the value of the last assignment is
printed. Dot-commands control the session (.help for the list).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRepl(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Start, "start", "", "Start of the query window (default: 24h ago)")
	cmd.Flags().StringVar(&opts.End, "end", "", "End of the query window (default: now)")

	return cmd
}

func runRepl(cmd *cobra.Command, opts *RunOptions) error {
	period, err := resolvePeriod(opts.Start, opts.End)
	if err != nil {
		return err
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	historyFile := filepath.Join(os.TempDir(), "eventql_history")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "eventql> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "EventQL shell (backend: %s, window: %s to %s)\n",
		cmdCtx.Cfg.Backend, period.Start.Format(time.RFC3339), period.End.Format(time.RFC3339))
	_, _ = fmt.Fprintln(out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(out)

	// The namespace persists across statements so earlier bindings stay
	// visible, the same as one growing script.
	ns := query.NewNamespace("repl", period.Start, period.End)
	registry := query.StdRegistry()

	var buffer strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buffer.Reset()
			rl.SetPrompt("eventql> ")
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if quit := handleDotCommand(cmd, cmdCtx, line); quit {
				break
			}
			continue
		}

		buffer.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			buffer.WriteString(" ")
			rl.SetPrompt("    ...> ")
			continue
		}
		rl.SetPrompt("eventql> ")

		script := buffer.String()
		buffer.Reset()

		if err := evalAndPrint(cmd, cmdCtx, ns, registry, script); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	}
	return nil
}

// evalAndPrint executes the buffered statements against the persistent
// namespace and prints the value of the last one.
func evalAndPrint(cmd *cobra.Command, cmdCtx *CommandContext, ns query.Namespace, registry *query.Registry, script string) error {
	ctx := cmd.Context()

	var last query.Value
	for _, raw := range strings.Split(script, ";") {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		stmt, err := query.ParseStatement(text)
		if err != nil {
			return err
		}
		if err := query.ExecStatement(ctx, stmt, cmdCtx.DS, ns, registry); err != nil {
			return err
		}
		last = ns.Lookup(stmt.Target)
	}
	if last == nil {
		return nil
	}
	return renderValue(cmd.OutOrStdout(), last, cmdCtx.Cfg.Output)
}

func handleDotCommand(cmd *cobra.Command, cmdCtx *CommandContext, line string) (quit bool) {
	out := cmd.OutOrStdout()

	switch strings.Fields(line)[0] {
	case ".quit", ".exit":
		return true

	case ".help":
		_, _ = fmt.Fprintln(out, "Commands:")
		_, _ = fmt.Fprintln(out, "  .buckets        List buckets in the datastore")
		_, _ = fmt.Fprintln(out, "  .functions      List available query functions")
		_, _ = fmt.Fprintln(out, "  .help           Show this help")
		_, _ = fmt.Fprintln(out, "  .quit           Exit the shell")
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintln(out, "Statements end with ';'. Example:")
		_, _ = fmt.Fprintln(out, `  events = query_bucket("window_myhost");`)

	case ".buckets":
		buckets, err := cmdCtx.DS.Buckets(cmd.Context())
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return false
		}
		_ = renderBuckets(out, buckets, cmdCtx.Cfg.Output)

	case ".functions":
		for _, name := range query.StdRegistry().Names() {
			_, _ = fmt.Fprintln(out, " ", name)
		}

	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command %s (try .help)\n", line)
	}
	return false
}
