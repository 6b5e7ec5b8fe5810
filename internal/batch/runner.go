package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aistudio/studio"
	"github.com/aistudio/studio/internal/image"
	"github.com/aistudio/studio/internal/parallel"
)

// ErrOutputExists marks items skipped because the output is already there.
var ErrOutputExists = errors.New("batch: output exists")

// ErrNotStarted marks items skipped because the batch was stopped first.
var ErrNotStarted = errors.New("batch: not started")

// Processor transforms one image. Implementations must be safe for
// concurrent use and must not modify src.
type Processor interface {
	Process(src *image.ImageBuf) (*image.ImageBuf, error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(src *image.ImageBuf) (*image.ImageBuf, error)

// Process calls f(src).
func (f ProcessorFunc) Process(src *image.ImageBuf) (*image.ImageBuf, error) { return f(src) }

// Releaser is implemented by processors that recycle output buffers. The
// runner hands each output back once it is saved.
type Releaser interface {
	Release(buf *image.ImageBuf)
}

// Status is the outcome of one item.
type Status int

const (
	StatusOK Status = iota
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Result records one item. Err is set for failed and skipped items.
type Result struct {
	Input    string
	Output   string
	Status   Status
	Err      error
	Duration time.Duration
}

// Report summarises a run. Results are sorted by input path.
type Report struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	Results   []Result
	Elapsed   time.Duration
}

// ProgressFunc is called after every item with the number of finished
// items. Calls are serialised and done increases by one each time.
type ProgressFunc func(done, total int, r Result)

// Runner executes batches with one Processor.
type Runner struct {
	proc       Processor
	onProgress ProgressFunc
	stop       atomic.Bool
}

// NewRunner creates a runner for p.
func NewRunner(p Processor) *Runner {
	return &Runner{proc: p}
}

// OnProgress installs a progress callback. Call before Run.
func (r *Runner) OnProgress(fn ProgressFunc) {
	r.onProgress = fn
}

// Stop asks the current run to finish. Items already running complete;
// items not yet started are reported as skipped. A Stop that arrives before
// or during discovery applies to the run being started; the flag clears
// when that run returns.
func (r *Runner) Stop() {
	r.stop.Store(true)
}

// Run processes every item Discover finds for opts.
//
// Per-item errors are recorded in the report, not returned. The returned
// error is non-nil only when discovery fails or ctx ends the run, in which
// case it is ctx.Err() and the partial report is still returned.
func (r *Runner) Run(ctx context.Context, opts Options) (*Report, error) {
	defer r.stop.Store(false)

	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	items, err := Discover(opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	report := &Report{Total: len(items), Results: make([]Result, 0, len(items))}
	log := studio.Logger()
	log.Info("batch: start", "input", opts.Input, "files", len(items), "workers", opts.Workers)

	var mu sync.Mutex
	record := func(res Result) {
		mu.Lock()
		defer mu.Unlock()
		switch res.Status {
		case StatusOK:
			report.Succeeded++
		case StatusFailed:
			report.Failed++
			log.Warn("batch: file failed", "path", res.Input, "err", res.Err)
		case StatusSkipped:
			report.Skipped++
		}
		report.Results = append(report.Results, res)
		if r.onProgress != nil {
			r.onProgress(len(report.Results), report.Total, res)
		}
	}

	if len(items) > 0 {
		workers := opts.Workers
		if workers == 0 {
			workers = runtime.GOMAXPROCS(0)
		}
		pool := parallel.NewWorkerPool(min(workers, len(items)))
		pool.ForEach(ctx, len(items),
			func(ctx context.Context, i int) {
				if r.stop.Load() {
					record(skipped(items[i], ErrNotStarted))
					return
				}
				record(r.processItem(items[i], opts))
			},
			func(i int) { record(skipped(items[i], ErrNotStarted)) },
		)
		pool.Close()
	}

	sort.Slice(report.Results, func(i, j int) bool {
		return report.Results[i].Input < report.Results[j].Input
	})
	report.Elapsed = time.Since(start)
	log.Info("batch: done",
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"elapsed", report.Elapsed.Round(time.Millisecond),
	)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func skipped(it Item, reason error) Result {
	return Result{Input: it.Input, Output: it.Output, Status: StatusSkipped, Err: reason}
}

// processItem loads, processes and saves one file. Panics inside the
// processor are turned into a failed result.
func (r *Runner) processItem(it Item, opts Options) (res Result) {
	start := time.Now()
	res = Result{Input: it.Input, Output: it.Output}
	defer func() {
		if p := recover(); p != nil {
			res.Status = StatusFailed
			res.Err = fmt.Errorf("batch: panic: %v", p)
		}
		res.Duration = time.Since(start)
	}()

	if !opts.Overwrite {
		if _, err := os.Stat(it.Output); err == nil {
			res.Status = StatusSkipped
			res.Err = ErrOutputExists
			return res
		}
	}

	src, err := image.Load(it.Input)
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}
	out, err := r.proc.Process(src)
	if err != nil {
		res.Status, res.Err = StatusFailed, fmt.Errorf("batch: process %s: %w", it.Input, err)
		return res
	}
	if rel, ok := r.proc.(Releaser); ok {
		defer rel.Release(out)
	}

	if err := os.MkdirAll(filepath.Dir(it.Output), 0o755); err != nil {
		res.Status, res.Err = StatusFailed, fmt.Errorf("batch: %w", err)
		return res
	}
	if err := image.Save(it.Output, out, opts.Save); err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}
	res.Status = StatusOK
	return res
}
