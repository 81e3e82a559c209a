package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/mdast/internal/ast"
	"github.com/dgallion1/mdast/internal/doctree"
	"github.com/dgallion1/mdast/internal/parser"
)

type parsedFile struct {
	name    string
	res     *parser.Result
	elapsed time.Duration
}

func runParse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if len(args) == 0 {
		args = []string{"-"}
	}

	files, err := parseFiles(ctx, args, jobs)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	color := isTerminal(os.Stdout)
	for _, f := range files {
		if err := writeResult(out, f.name, f.res, format, color); err != nil {
			return err
		}
		summarize(cmd.ErrOrStderr(), f)
	}
	return nil
}

// parseFiles parses names with at most limit files in flight and returns
// the results in argument order. "-" reads stdin.
func parseFiles(ctx context.Context, names []string, limit int) ([]parsedFile, error) {
	p := parser.NewMarkdownParser(dialect, log)
	files := make([]parsedFile, len(names))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(limit, 1))
	for i, name := range names {
		g.Go(func() error {
			f, err := parseOne(ctx, p, name)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func parseOne(ctx context.Context, p *parser.MarkdownParser, name string) (parsedFile, error) {
	var r io.Reader = os.Stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return parsedFile{}, err
		}
		defer f.Close()
		r = f
	}

	start := time.Now()
	res, err := p.ParseReader(ctx, r)
	if err != nil {
		return parsedFile{}, fmt.Errorf("parse %s: %w", name, err)
	}
	if res.Canceled {
		return parsedFile{}, fmt.Errorf("parse %s: %w", name, ctx.Err())
	}
	elapsed := time.Since(start)

	if safeLinks {
		if n := ast.SanitizeLinks(res.Root); n > 0 {
			log.Info("unsafe links removed", "file", name, "count", n)
		}
	}
	if verify {
		if err := ast.Verify(res.Root); err != nil {
			return parsedFile{}, fmt.Errorf("verify %s: %w", name, err)
		}
	}
	return parsedFile{name: name, res: res, elapsed: elapsed}, nil
}

func summarize(w io.Writer, f parsedFile) {
	if !verbose && !f.res.Truncated {
		return
	}
	fmt.Fprintf(w, "%s: %s, %s nodes (depth %d) in %s\n",
		f.name, humanize.Bytes(uint64(f.res.InputSize)), humanize.Comma(int64(f.res.Nodes)), f.res.Depth, f.elapsed.Round(time.Microsecond))
	if f.res.Truncated {
		fmt.Fprintf(w, "%s: input truncated to %s\n", f.name, humanize.Bytes(uint64(f.res.ParsedSize)))
	}
}

func runOutline(cmd *cobra.Command, args []string) error {
	files, err := parseFiles(cmd.Context(), args, 1)
	if err != nil {
		return err
	}
	f := files[0]
	tree := doctree.Build(f.res.Root, parser.Title(f.name))

	out := cmd.OutOrStdout()
	switch format {
	case formatYAML:
		return yaml.NewEncoder(out).Encode(tree)
	case formatTree:
		st := newTreeStyles(isTerminal(os.Stdout))
		fmt.Fprintln(out, st.header.Render(tree.Title))
		tree.Walk(func(n *doctree.DocNode, breadcrumb []string) {
			if n.Title == "" {
				return
			}
			indent := max(len(breadcrumb)-1, 0)
			fmt.Fprintf(out, "%*s%s %s\n", indent*2, "", st.kind.Render(n.Title), st.span.Render(fmt.Sprintf("[%d,%d)", n.Begin, n.End)))
		})
		return nil
	default:
		return writeJSON(out, tree)
	}
}
