package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/mdast/internal/cache"
	"github.com/dgallion1/mdast/internal/metrics"
	"github.com/dgallion1/mdast/internal/parser"
	"github.com/dgallion1/mdast/internal/stats"
)

// Worker processes a single document job.
type Worker struct {
	cache *cache.Cache
	stats *stats.ParseStats
	log   *slog.Logger
}

func NewWorker(c *cache.Cache, st *stats.ParseStats, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Worker{cache: c, stats: st, log: log}
}

// Process parses the job's document and stores the tree on the job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, job.Options, log)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		metrics.ObserveParse("batch", metrics.ResultError, 0, 0, 0)
		return
	}

	data := job.FileData()
	var key []byte
	if w.cache != nil {
		key = cache.Key(data, job.Options)
		res, ok, err := w.cache.Get(key)
		if err != nil {
			log.Warn("cache read failed", "error", err)
		}
		metrics.CacheLookup(ok)
		if ok {
			log.Debug("cache hit", "nodes", res.Nodes)
			job.Complete(res, true)
			return
		}
	}

	start := time.Now()
	res, err := p.Parse(ctx, data)
	elapsed := time.Since(start)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		metrics.ObserveParse("batch", metrics.ResultError, elapsed, len(data), 0)
		return
	}
	if res.Canceled {
		log.Warn("parse canceled", "parsed_size", res.ParsedSize)
		job.AddError("parse canceled")
		job.SetStatus(StatusFailed, "parsing")
		metrics.ObserveParse("batch", metrics.ResultCanceled, elapsed, res.ParsedSize, res.Nodes)
		return
	}

	result := metrics.ResultOK
	if res.Truncated {
		result = metrics.ResultTruncated
	}
	metrics.ObserveParse("batch", result, elapsed, res.ParsedSize, res.Nodes)
	if w.stats != nil {
		w.stats.Record(elapsed, res.ParsedSize, res.Nodes)
	}
	if w.cache != nil {
		if err := w.cache.Put(key, res); err != nil {
			log.Warn("cache write failed", "error", err)
		}
	}

	log.Info("parse complete", "nodes", res.Nodes, "truncated", res.Truncated, "elapsed", elapsed)
	job.Complete(res, false)
}
