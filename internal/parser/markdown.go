package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dgallion1/mdast/internal/ast"
	"github.com/dgallion1/mdast/internal/builder"
	"github.com/dgallion1/mdast/internal/emitter"
)

// Result is the outcome of one parse.
type Result struct {
	Root       *ast.Node `json:"root" yaml:"root"`
	Truncated  bool      `json:"truncated,omitempty" yaml:"truncated,omitempty"` // input exceeded the offset range
	Canceled   bool      `json:"canceled,omitempty" yaml:"canceled,omitempty"`   // context ended before the last block
	InputSize  int64     `json:"input_size" yaml:"input_size"`
	ParsedSize int       `json:"parsed_size" yaml:"parsed_size"`
	Nodes      int       `json:"nodes" yaml:"nodes"`
	Depth      int       `json:"depth" yaml:"depth"` // deepest nesting below the root
}

// MarkdownParser handles Markdown documents using goldmark. It is safe for
// concurrent use; every parse gets its own builder.
type MarkdownParser struct {
	emitter *emitter.Emitter
	log     *slog.Logger
	limit   int64 // largest input prefix that is parsed
}

// NewMarkdownParser returns a parser for the given dialect. A nil logger
// discards builder diagnostics.
func NewMarkdownParser(opts emitter.Options, log *slog.Logger) *MarkdownParser {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &MarkdownParser{
		emitter: emitter.New(opts),
		log:     log,
		limit:   int64(ast.MaxOffset),
	}
}

// Options returns the dialect the parser was built with.
func (p *MarkdownParser) Options() emitter.Options {
	return p.emitter.Options()
}

// Parse builds the tree for src. Input beyond the offset range is dropped
// and flagged in the result. A canceled context yields the tree built so
// far with Canceled set, not an error.
func (p *MarkdownParser) Parse(ctx context.Context, src []byte) (*Result, error) {
	res := &Result{InputSize: int64(len(src))}
	if int64(len(src)) > p.limit {
		src = src[:p.limit]
		res.Truncated = true
		p.log.Warn("markdown input truncated", "input_size", res.InputSize, "parsed_size", p.limit)
	}
	res.ParsedSize = len(src)

	size := ast.Offset(len(src))
	b := builder.New(size, builder.WithLogger(p.log))
	if err := p.emitter.Emit(ctx, src, b); err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("emit events: %w", err)
		}
		res.Canceled = true
		p.log.Debug("markdown parse canceled", "error", err)
	}

	res.Root = b.Finalize(size)
	res.Nodes = ast.Count(res.Root)
	res.Depth = ast.Depth(res.Root)
	return res, nil
}

// ParseReader reads r to the end and parses what fits in the offset range.
func (p *MarkdownParser) ParseReader(ctx context.Context, r io.Reader) (*Result, error) {
	src, err := io.ReadAll(io.LimitReader(r, p.limit+1))
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}
	if int64(len(src)) <= p.limit {
		return p.Parse(ctx, src)
	}

	rest, err := io.Copy(io.Discard, r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}
	res, err := p.Parse(ctx, src)
	if err != nil {
		return nil, err
	}
	res.InputSize += rest
	return res, nil
}
