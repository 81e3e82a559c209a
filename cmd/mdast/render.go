package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/k0kubun/pp"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/mdast/internal/ast"
	"github.com/dgallion1/mdast/internal/parser"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatPP   = "pp"
	formatTree = "tree"
)

func validFormat(f string) bool {
	switch f {
	case formatJSON, formatYAML, formatPP, formatTree:
		return true
	}
	return false
}

// fileResult is one parsed file as printed by the json, yaml and pp formats.
type fileResult struct {
	File          string `json:"file" yaml:"file"`
	parser.Result `yaml:",inline"`
}

// treeStyles colors the tree format. The zero value prints plain text.
type treeStyles struct {
	kind   lipgloss.Style
	span   lipgloss.Style
	attr   lipgloss.Style
	header lipgloss.Style
}

func newTreeStyles(color bool) treeStyles {
	if !color {
		plain := lipgloss.NewStyle()
		return treeStyles{kind: plain, span: plain, attr: plain, header: plain}
	}
	return treeStyles{
		kind:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#20B9B4")),
		span:   lipgloss.NewStyle().Foreground(lipgloss.Color("#2C4A54")),
		attr:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F4D03F")),
		header: lipgloss.NewStyle().Bold(true).Underline(true),
	}
}

// writeResult prints res in the requested format.
func writeResult(w io.Writer, name string, res *parser.Result, format string, color bool) error {
	out := fileResult{File: name, Result: *res}
	switch format {
	case formatJSON:
		return writeJSON(w, out)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	case formatPP:
		pp.ColoringEnabled = color
		_, err := pp.Fprintln(w, out)
		return err
	case formatTree:
		st := newTreeStyles(color)
		if _, err := fmt.Fprintln(w, st.header.Render(name)); err != nil {
			return err
		}
		return writeTree(w, res.Root, st)
	}
	return fmt.Errorf("unknown format %q", format)
}

// writeTree prints one line per node, indented by depth.
func writeTree(w io.Writer, root *ast.Node, st treeStyles) error {
	var err error
	ast.Walk(root, func(n *ast.Node, depth int) bool {
		if err != nil {
			return false
		}
		line := strings.Repeat("  ", depth) +
			st.kind.Render(n.Kind.String()) + " " +
			st.span.Render(fmt.Sprintf("[%d,%d)", n.Begin, n.End))
		if a := nodeAttrs(n); a != "" {
			line += " " + st.attr.Render(a)
		}
		if n.Content != "" {
			line += " " + strconv.Quote(snippet(n.Content, 60))
		}
		_, err = fmt.Fprintln(w, line)
		return true
	})
	return err
}

func nodeAttrs(n *ast.Node) string {
	var parts []string
	add := func(k, v string) { parts = append(parts, k+"="+v) }
	if n.Level > 0 {
		add("level", strconv.Itoa(n.Level))
	}
	if n.Ordered {
		add("start", strconv.Itoa(n.Start))
	}
	if n.Kind == ast.KindTaskListItem {
		add("checked", strconv.FormatBool(n.Checked))
	}
	if n.Language != "" {
		add("lang", n.Language)
	}
	if n.IsHeader {
		add("header", "true")
	}
	if n.Align != ast.AlignDefault {
		add("align", n.Align.String())
	}
	if n.Href != "" {
		add("href", strconv.Quote(n.Href))
	}
	if n.Title != "" {
		add("title", strconv.Quote(n.Title))
	}
	if n.Alt != "" {
		add("alt", strconv.Quote(n.Alt))
	}
	return strings.Join(parts, " ")
}

func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
