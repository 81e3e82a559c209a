// Package cache stores parse results in BadgerDB, keyed by content hash and
// dialect.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/dgallion1/mdast/internal/emitter"
	"github.com/dgallion1/mdast/internal/parser"
)

// Config holds cache settings.
type Config struct {
	// Dir is the BadgerDB directory. Empty keeps the cache in memory.
	Dir string

	// TTL bounds how long a result is kept. Zero keeps results until GC.
	TTL time.Duration

	// GCInterval is how often value log GC runs. Zero disables it.
	GCInterval time.Duration
}

// Cache is safe for concurrent use.
type Cache struct {
	db  *badger.DB
	cfg Config
	log *slog.Logger
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open opens the cache described by cfg.
func Open(cfg Config, log *slog.Logger) (*Cache, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	var opts badger.Options
	if cfg.Dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", cfg.Dir, err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts = opts.WithNumVersionsToKeep(1).WithLogger(&badgerLogger{logger: log.With("component", "badger")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open parse cache: %w", err)
	}
	return &Cache{db: db, cfg: cfg, log: log}, nil
}

// Close releases the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Key returns the cache key for src parsed with opts.
func Key(src []byte, opts emitter.Options) []byte {
	var flags byte
	for i, on := range []bool{opts.GFM, opts.Math, opts.Wikilinks, opts.HTML} {
		if on {
			flags |= 1 << i
		}
	}
	h := sha256.New()
	h.Write([]byte{flags})
	h.Write(src)
	return []byte("parse/" + hex.EncodeToString(h.Sum(nil)))
}

// Get returns the cached result for key. A miss is not an error.
func (c *Cache) Get(key []byte) (*parser.Result, bool, error) {
	var res parser.Result
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &res)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached result: %w", err)
	}
	return &res, true, nil
}

// Put stores res under key. Canceled results are not cached.
func (c *Cache) Put(key []byte, res *parser.Result) error {
	if res == nil || res.Canceled {
		return nil
	}
	val, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key, val)
		if c.cfg.TTL > 0 {
			e = e.WithTTL(c.cfg.TTL)
		}
		return txn.SetEntry(e)
	})
}

// RunGC collects the value log every GCInterval until ctx is done.
func (c *Cache) RunGC(ctx context.Context) {
	if c.cfg.GCInterval <= 0 || c.cfg.Dir == "" {
		return
	}
	ticker := time.NewTicker(c.cfg.GCInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				err := c.db.RunValueLogGC(0.5)
				if err == nil {
					continue
				}
				if !errors.Is(err, badger.ErrNoRewrite) {
					c.log.Warn("cache gc failed", "error", err)
				}
				break
			}
		}
	}
}
