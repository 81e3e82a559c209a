// Command mdast parses markdown files into syntax trees from the shell.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dgallion1/mdast/internal/emitter"
)

var (
	dialect   = emitter.DefaultOptions
	safeLinks bool
	verify    bool
	jobs      int
	format    string
	verbose   bool

	log *slog.Logger

	rootCmd = &cobra.Command{
		Use:           "mdast",
		Short:         "Parse markdown into a source-mapped syntax tree",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			if format == "" {
				format = defaultFormat()
			}
			if !validFormat(format) {
				return fmt.Errorf("unknown format %q (want json, yaml, pp or tree)", format)
			}
			return nil
		},
	}

	parseCmd = &cobra.Command{
		Use:   "parse [file...]",
		Short: "Parse files (or stdin) and print their trees",
		RunE:  runParse,
	}

	outlineCmd = &cobra.Command{
		Use:   "outline <file>",
		Short: "Print the heading outline of a file",
		Args:  cobra.ExactArgs(1),
		RunE:  runOutline,
	}

	watchCmd = &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-parse a file every time it changes",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&dialect.GFM, "gfm", dialect.GFM, "enable GitHub flavored extensions")
	pf.BoolVar(&dialect.Math, "math", dialect.Math, "enable $inline$ and $$display$$ math")
	pf.BoolVar(&dialect.Wikilinks, "wikilinks", dialect.Wikilinks, "enable [[target|label]] links")
	pf.BoolVar(&dialect.HTML, "html", dialect.HTML, "report raw HTML instead of treating it as text")
	pf.BoolVar(&safeLinks, "safe-links", false, "blank link and image targets with unsafe schemes")
	pf.BoolVar(&verify, "verify", false, "check tree invariants before printing")
	pf.IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "files parsed in parallel")
	pf.StringVarP(&format, "format", "f", "", "output format: json, yaml, pp or tree (default tree on a terminal, json otherwise)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "log parser diagnostics")

	rootCmd.AddCommand(parseCmd, outlineCmd, watchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "mdast:", err)
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func defaultFormat() string {
	if isTerminal(os.Stdout) {
		return formatTree
	}
	return formatJSON
}
