// Package emitter drives an event.Handler from goldmark's parse of a
// markdown document.
package emitter

import (
	"context"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/mdast/internal/event"
)

// Options selects the markdown dialect.
type Options struct {
	GFM       bool `json:"gfm" yaml:"gfm"`             // tables, strikethrough, task lists, autolinks
	Math      bool `json:"math" yaml:"math"`           // $...$ and $$...$$
	Wikilinks bool `json:"wikilinks" yaml:"wikilinks"` // [[target|label]]
	HTML      bool `json:"html" yaml:"html"`           // raw HTML events; emitted as text when off
}

// DefaultOptions is GFM with raw HTML reported as text.
var DefaultOptions = Options{GFM: true}

// NewMarkdown returns a goldmark instance with the extensions opts asks for.
func NewMarkdown(opts Options) goldmark.Markdown {
	var exts []goldmark.Extender
	if opts.GFM {
		exts = append(exts, extension.GFM)
	}
	if opts.Math {
		exts = append(exts, MathExtension)
	}
	if opts.Wikilinks {
		exts = append(exts, WikiLinkExtension)
	}
	return goldmark.New(goldmark.WithExtensions(exts...))
}

// Emitter parses documents and reports them as events. An Emitter is safe
// for concurrent use; each Emit call keeps its own state.
type Emitter struct {
	md   goldmark.Markdown
	opts Options
}

// New returns an Emitter for the given dialect.
func New(opts Options) *Emitter {
	return &Emitter{md: NewMarkdown(opts), opts: opts}
}

// Options returns the dialect the emitter was built with.
func (e *Emitter) Options() Options {
	return e.opts
}

// Emit parses src and delivers its events to h, starting with the
// document block and ending with its leave at len(src). If ctx is canceled
// Emit stops between blocks and returns ctx.Err(); open constructs are not
// left.
func (e *Emitter) Emit(ctx context.Context, src []byte, h event.Handler) error {
	doc := e.md.Parser().Parse(text.NewReader(src))
	w := &walker{
		ctx:  ctx,
		src:  src,
		h:    h,
		opts: e.opts,
	}

	h.EnterBlock(event.BlockDoc, nil, 0)
	if err := w.blocks(doc); err != nil {
		return err
	}
	h.LeaveBlock(event.BlockDoc, nil, event.Offset(len(src)))
	return nil
}
