// Package parser turns markdown documents into ast trees.
package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dgallion1/mdast/internal/emitter"
)

// ErrUnsupportedExtension is returned for files that are not markdown.
var ErrUnsupportedExtension = errors.New("unsupported file extension")

// Parser converts markdown source into a tree.
type Parser interface {
	Parse(ctx context.Context, src []byte) (*Result, error)
}

var _ Parser = (*MarkdownParser)(nil)

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".mdown":    true,
	".txt":      true,
}

// ForFile returns a parser for filename, or ErrUnsupportedExtension.
func ForFile(filename string, opts emitter.Options, log *slog.Logger) (*MarkdownParser, error) {
	if !IsSupportedExtension(filename) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExtension, filepath.Ext(filename))
	}
	return NewMarkdownParser(opts, log), nil
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Title derives a document title from a filename by dropping the
// directory and a supported extension.
func Title(filename string) string {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	if SupportedExtensions[strings.ToLower(ext)] {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
