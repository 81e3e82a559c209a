package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// debounceWindow coalesces the burst of events editors produce on save.
const debounceWindow = 100 * time.Millisecond

func runWatch(cmd *cobra.Command, args []string) error {
	target, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	reparse := func(ctx context.Context) {
		files, err := parseFiles(ctx, []string{target}, 1)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "mdast:", err)
			return
		}
		if err := writeResult(out, args[0], files[0].res, format, isTerminal(os.Stdout)); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "mdast:", err)
		}
		summarize(cmd.ErrOrStderr(), files[0])
	}
	return watchFile(cmd.Context(), target, reparse)
}

// watchFile runs onChange once, then again after every write to path,
// until ctx is done. The parent directory is watched so that editors which
// replace the file on save are still followed.
func watchFile(ctx context.Context, path string, onChange func(context.Context)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	onChange(ctx)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			log.Debug("file changed", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
			} else {
				timer.Reset(debounceWindow)
			}
			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)
		case <-fire:
			fire = nil
			onChange(ctx)
		}
	}
}
