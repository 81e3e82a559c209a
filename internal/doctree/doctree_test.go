package doctree

import (
	"context"
	"strings"
	"testing"

	"github.com/dgallion1/mdast/internal/emitter"
	"github.com/dgallion1/mdast/internal/parser"
)

func build(t *testing.T, input, title string) *DocTree {
	t.Helper()
	p := parser.NewMarkdownParser(emitter.DefaultOptions, nil)
	res, err := p.Parse(context.Background(), []byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return Build(res.Root, title)
}

func TestBuild_HeadingHierarchy(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content.

### Subsection A1

Subsection A1 content.

## Section B

Section B content.
`
	tree := build(t, input, "doc")

	if tree.Title != "doc" {
		t.Errorf("expected title %q, got %q", "doc", tree.Title)
	}

	// Top-level: one h1 ("Title")
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 top-level child (h1), got %d", len(tree.Children))
	}

	h1 := tree.Children[0]
	if h1.Title != "Title" || h1.Level != 1 {
		t.Errorf("expected h1 %q, got %q level %d", "Title", h1.Title, h1.Level)
	}
	if !strings.Contains(h1.Text, "Intro text.") {
		t.Errorf("expected h1 text to contain %q, got %q", "Intro text.", h1.Text)
	}

	// h1 has two h2 children: "Section A" and "Section B"
	if len(h1.Children) != 2 {
		t.Fatalf("expected 2 h2 children, got %d", len(h1.Children))
	}

	secA := h1.Children[0]
	if secA.Title != "Section A" {
		t.Errorf("expected %q, got %q", "Section A", secA.Title)
	}
	if !strings.Contains(secA.Text, "Section A content.") {
		t.Errorf("expected section A text to contain %q, got %q", "Section A content.", secA.Text)
	}
	if len(secA.Children) != 1 || secA.Children[0].Title != "Subsection A1" {
		t.Fatalf("expected one h3 %q under Section A", "Subsection A1")
	}

	secB := h1.Children[1]
	if secB.Title != "Section B" {
		t.Errorf("expected %q, got %q", "Section B", secB.Title)
	}

	// Offsets: sections cover their content, and h1 covers everything.
	sub := secA.Children[0]
	if !(secA.Begin <= sub.Begin && sub.End <= secA.End) {
		t.Errorf("subsection [%d,%d) not inside section [%d,%d)", sub.Begin, sub.End, secA.Begin, secA.End)
	}
	if secA.End > secB.Begin {
		t.Errorf("section A ends at %d after section B begins at %d", secA.End, secB.Begin)
	}
	if got := input[secB.Begin:secB.End]; !strings.HasPrefix(got, "## Section B") || !strings.Contains(got, "Section B content.") {
		t.Errorf("unexpected section B source %q", got)
	}
	if h1.End < secB.End {
		t.Errorf("h1 end %d before last section end %d", h1.End, secB.End)
	}
}

func TestBuild_NoHeadings(t *testing.T) {
	tree := build(t, "Just some plain text.\n\nAnother paragraph here.", "plain")

	// No headings: all text should be collected into a single child node.
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 child for headingless markdown, got %d", len(tree.Children))
	}
	text := tree.Children[0].Text
	if text != "Just some plain text.\n\nAnother paragraph here." {
		t.Errorf("unexpected text %q", text)
	}
}

func TestBuild_CodeBlocksJoinSection(t *testing.T) {
	input := "# API Reference\n\nSome intro.\n\n## Endpoints\n\nList of endpoints:\n\n```\nGET /api/users\nPOST /api/users\n```\n\nMore text after code.\n"
	tree := build(t, input, "api")

	if len(tree.Children) != 1 || len(tree.Children[0].Children) != 1 {
		t.Fatalf("expected h1 with one h2")
	}
	endpoints := tree.Children[0].Children[0]
	if endpoints.Title != "Endpoints" {
		t.Errorf("expected title %q, got %q", "Endpoints", endpoints.Title)
	}
	if !strings.Contains(endpoints.Text, "GET /api/users") {
		t.Errorf("expected code block content in text, got %q", endpoints.Text)
	}
	if !strings.Contains(endpoints.Text, "More text after code.") {
		t.Errorf("expected post-code text, got %q", endpoints.Text)
	}
}

func TestBuild_SkippedLevels(t *testing.T) {
	tree := build(t, "### deep\n\n# top\n\n### child\n", "x")
	if len(tree.Children) != 2 {
		t.Fatalf("expected 2 top-level sections, got %d", len(tree.Children))
	}
	if tree.Children[0].Title != "deep" || len(tree.Children[1].Children) != 1 {
		t.Errorf("unexpected nesting: %+v", tree.Children)
	}
}

func TestBuild_EmptyInput(t *testing.T) {
	tree := build(t, "", "empty")
	if len(tree.Children) != 0 {
		t.Errorf("expected 0 children for empty input, got %d", len(tree.Children))
	}
	if Build(nil, "nil").Title != "nil" {
		t.Error("expected title on nil root")
	}
}

func TestDocTree_Walk(t *testing.T) {
	tree := build(t, "# A\n\n## B\n\ntext\n\n# C\n", "w")
	var got []string
	tree.Walk(func(n *DocNode, bc []string) {
		got = append(got, strings.Join(bc, "/"))
	})
	want := []string{"A", "A/B", "C"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, got)
	}
}
