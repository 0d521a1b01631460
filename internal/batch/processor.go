// Package batch drives a run over a source directory: enumerate the books,
// count tokens in each, move the short ones and write the report.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/google/uuid"

	"epubtokens/internal/config"
	"epubtokens/internal/epub"
	"epubtokens/internal/errors"
	"epubtokens/internal/log"
	"epubtokens/internal/organize"
	"epubtokens/internal/report"
	"epubtokens/internal/tokens"
	"epubtokens/pkg/types"
)

// ErrRunInProgress is returned when a run is started while another is active.
var ErrRunInProgress = errors.New("a run is already in progress")

// Processor runs batches one at a time.
type Processor struct {
	extract epub.Func
	counter *tokens.Counter
	mover   organize.FileMover
	reports func(format string) report.Writer
	pattern glob.Glob
	now     func() time.Time

	mu     sync.Mutex
	active bool
}

// Option configures a Processor.
type Option func(*Processor)

// WithExtractor replaces the EPUB text extractor.
func WithExtractor(f epub.Func) Option {
	return func(p *Processor) { p.extract = f }
}

// WithTokenizer sets the token counting backend.
func WithTokenizer(t tokens.Tokenizer) Option {
	return func(p *Processor) { p.counter = tokens.NewCounter(t) }
}

// WithMover replaces the file mover.
func WithMover(m organize.FileMover) Option {
	return func(p *Processor) { p.mover = m }
}

// WithReportWriter uses w for every run regardless of report format.
func WithReportWriter(w report.Writer) Option {
	return func(p *Processor) {
		p.reports = func(string) report.Writer { return w }
	}
}

// WithPattern restricts enumeration to names matching g.
func WithPattern(g glob.Glob) Option {
	return func(p *Processor) { p.pattern = g }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// New creates a Processor. Without WithTokenizer every run fails with a
// configuration error.
func New(opts ...Option) *Processor {
	p := &Processor{
		extract: epub.New(config.DefaultMaxFileSize).Func(),
		mover:   organize.New(),
		reports: report.New,
		pattern: glob.MustCompile("*.epub"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewFromConfig builds a Processor from the saved settings, loading the
// configured tokenizer.
func NewFromConfig(cfg *config.Config) (*Processor, error) {
	pattern, err := glob.Compile(strings.ToLower(cfg.Settings.Pattern))
	if err != nil {
		return nil, errors.NewConfigError("invalid file pattern", "settings.pattern", errors.SettingInvalid, err)
	}
	tk, err := tokens.Load(cfg.Tokenizer)
	if err != nil {
		return nil, errors.NewConfigError("failed to load tokenizer", "tokenizer", errors.SettingInvalid, err)
	}
	return New(
		WithExtractor(epub.New(cfg.Settings.MaxFileSize).Func()),
		WithTokenizer(tk),
		WithPattern(pattern),
	), nil
}

// Close releases the tokenizer.
func (p *Processor) Close() {
	if p.counter != nil {
		p.counter.Close()
	}
}

func (p *Processor) acquire() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active {
		return false
	}
	p.active = true
	return true
}

func (p *Processor) release() {
	p.mu.Lock()
	p.active = false
	p.mu.Unlock()
}

// Busy reports whether a run is in progress.
func (p *Processor) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Process executes one run synchronously and returns its terminal event.
// emit receives every event in order, on the calling goroutine; it may be
// nil. Cancelling ctx stops the run before the next file.
func (p *Processor) Process(ctx context.Context, run config.RunConfig, emit func(Event)) Done {
	if !p.acquire() {
		done := FailedEvent{Err: ErrRunInProgress, Config: run}
		if emit != nil {
			emit(done)
		}
		return done
	}
	defer p.release()
	return p.process(ctx, uuid.NewString(), run, emit)
}

type runner struct {
	id    string
	emit  func(Event)
	state State
}

func (r *runner) send(ev Event) {
	if r.emit != nil {
		r.emit(ev)
	}
}

func (r *runner) transition(to State) {
	if !r.state.CanTransition(to) {
		panic(fmt.Sprintf("batch: invalid transition %s -> %s", r.state, to))
	}
	from := r.state
	r.state = to
	r.send(StateChanged{RunID: r.id, From: from, To: to})
}

func (r *runner) log(level log.Level, path string, reason errors.Reason, format string, args ...interface{}) {
	r.send(Log{RunID: r.id, Level: level, Message: fmt.Sprintf(format, args...), Path: path, Reason: reason})
}

func (p *Processor) process(ctx context.Context, id string, run config.RunConfig, emit func(Event)) Done {
	started := p.now()
	r := &runner{id: id, emit: emit, state: Idle}

	fail := func(err error, results []types.ProcessingResult, total int) Done {
		r.transition(Failed)
		summary := types.Summarize(results)
		summary.RunID, summary.Total = id, total
		summary.Duration = p.now().Sub(started)
		done := FailedEvent{Err: err, Summary: summary, Results: results, Config: run}
		r.send(done)
		return done
	}

	run, err := p.validate(run, started)
	if err != nil {
		r.log(log.ErrorLevel, "", errors.ReasonOf(err), "Invalid configuration: %v", err)
		return fail(err, nil, 0)
	}

	r.transition(Enumerating)
	r.log(log.InfoLevel, "", "", "Scanning %s", run.SourceDir)
	files, err := p.enumerate(run.SourceDir)
	if err != nil {
		r.log(log.ErrorLevel, run.SourceDir, errors.ReasonOf(err), "Cannot list source directory: %v", err)
		return fail(err, nil, 0)
	}
	total := len(files)
	r.log(log.InfoLevel, "", "", "Found %d files", total)

	finish := func(results []types.ProcessingResult, cancelled bool) Done {
		summary := types.Summarize(results)
		summary.RunID, summary.Total = id, total

		writer := p.reports(run.ReportFormat)
		err := writer.Write(results, run.ReportPath)
		if err == nil {
			summary.ReportPath = report.CSVPath(run.ReportPath)
		}
		summary.Duration = p.now().Sub(started)

		if cancelled {
			if err != nil {
				r.log(log.ErrorLevel, run.ReportPath, errors.ReasonOf(err), "Partial report not written: %v", err)
			}
			r.transition(Cancelled)
			done := CancelledEvent{Summary: summary, Results: results, Config: run}
			r.send(done)
			return done
		}

		if err != nil {
			r.log(log.ErrorLevel, run.ReportPath, errors.ReasonOf(err), "Report not written: %v", err)
			return fail(err, results, total)
		}
		r.log(log.InfoLevel, summary.ReportPath, "", "Report written")
		r.transition(Completed)
		done := CompletedEvent{Summary: summary, Results: results, Config: run}
		r.send(done)
		return done
	}

	if ctx.Err() != nil {
		return finish(nil, true)
	}

	r.transition(Processing)
	results := make([]types.ProcessingResult, 0, total)
	for i, f := range files {
		if ctx.Err() != nil {
			r.log(log.WarnLevel, "", "", "Cancelled after %d of %d files", i, total)
			return finish(results, true)
		}
		results = append(results, p.processFile(r, run, f))
		r.send(Progress{RunID: id, Processed: i + 1, Total: total, CurrentFile: f.Path})
	}

	r.transition(Finalizing)
	return finish(results, false)
}

// validate checks run and fills in defaults. Paths are made absolute.
func (p *Processor) validate(run config.RunConfig, started time.Time) (config.RunConfig, error) {
	if p.counter == nil {
		return run, errors.NewConfigError("no tokenizer configured", "tokenizer", errors.SettingInvalid, nil)
	}

	if strings.TrimSpace(run.SourceDir) == "" {
		return run, errors.NewConfigError("source directory is required", "source", errors.SourceInvalid, nil)
	}
	source, err := filepath.Abs(run.SourceDir)
	if err != nil {
		return run, errors.NewConfigError("invalid source directory", "source", errors.SourceInvalid, err)
	}
	info, err := os.Stat(source)
	if err != nil {
		return run, errors.NewConfigError("source directory not accessible", "source", errors.SourceInvalid, err)
	}
	if !info.IsDir() {
		return run, errors.NewConfigError("source is not a directory", "source", errors.SourceInvalid, nil)
	}
	run.SourceDir = source

	if strings.TrimSpace(run.DestinationDir) == "" || strings.ContainsRune(run.DestinationDir, 0) {
		return run, errors.NewConfigError("destination directory is required", "destination", errors.DestinationInvalid, nil)
	}
	dest, err := filepath.Abs(run.DestinationDir)
	if err != nil {
		return run, errors.NewConfigError("invalid destination directory", "destination", errors.DestinationInvalid, err)
	}
	if dest == source {
		return run, errors.NewConfigError("destination must differ from source", "destination", errors.DestinationInvalid, nil)
	}
	if info, err := os.Stat(dest); err == nil && !info.IsDir() {
		return run, errors.NewConfigError("destination is not a directory", "destination", errors.DestinationInvalid, nil)
	}
	run.DestinationDir = dest

	if run.Threshold < 0 {
		return run, errors.NewConfigError(fmt.Sprintf("threshold must be >= 0, got %d", run.Threshold), "threshold", errors.ThresholdInvalid, nil)
	}

	if run.ReportPath == "" {
		run.ReportPath = report.DefaultPath(run.DestinationDir, started)
	} else if run.ReportPath, err = filepath.Abs(run.ReportPath); err != nil {
		return run, errors.NewConfigError("invalid report path", "report", errors.SettingInvalid, err)
	}
	return run, nil
}

// enumerate lists regular files directly inside dir whose lower-cased
// name matches the pattern, sorted by path.
func (p *Processor) enumerate(dir string) ([]types.SourceFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewConfigError("cannot list source directory", "source", errors.SourceInvalid, err)
	}

	var files []types.SourceFile
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if !p.pattern.Match(strings.ToLower(entry.Name())) {
			continue
		}
		f := types.SourceFile{Path: filepath.Join(dir, entry.Name())}
		if info, err := entry.Info(); err == nil {
			f.Size = info.Size()
		}
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// processFile turns one file into exactly one result. Nothing a single
// file does can abort the run. Every file gets one info line; failures
// also get an error line.
func (p *Processor) processFile(r *runner, run config.RunConfig, f types.SourceFile) (res types.ProcessingResult) {
	res = types.ProcessingResult{Path: f.Path}
	defer func() {
		switch {
		case res.Moved:
			r.log(log.InfoLevel, f.Path, "", "Moved %s (%d tokens) to %s", f.Name(), *res.Tokens, res.Destination)
		case res.Status == types.StatusOK:
			r.log(log.InfoLevel, f.Path, "", "Kept %s (%d tokens)", f.Name(), *res.Tokens)
		default:
			r.log(log.InfoLevel, f.Path, "", "Processed %s: %s", f.Name(), res.Status)
		}
	}()

	doc, err := p.safeExtract(f.Path)
	if err != nil {
		res.Status, res.Error = types.StatusExtractFailed, err.Error()
		r.log(log.ErrorLevel, f.Path, errors.ReasonOf(err), "Error processing %s: %v", f.Name(), err)
		return res
	}
	res.Title, res.TextLength = doc.Title, len(doc.Text)

	n, err := p.counter.Count(doc.Text)
	if err != nil {
		err = errors.NewTokenizationError(f.Path, errors.Unwrap(err))
		res.Status, res.Error = types.StatusTokenizeFailed, err.Error()
		r.log(log.ErrorLevel, f.Path, errors.TokenizerFailure, "Error processing %s: %v", f.Name(), err)
		return res
	}
	res.Tokens = types.IntPtr(n)

	if n >= run.Threshold {
		res.Status = types.StatusOK
		return res
	}

	dest, err := p.mover.Move(f.Path, run.DestinationDir)
	if err != nil {
		if !errors.IsMove(err) {
			err = errors.NewMoveError(f.Path, errors.IOError, err)
		}
		res.Status, res.Error = types.StatusMoveFailed, err.Error()
		r.log(log.ErrorLevel, f.Path, errors.ReasonOf(err), "Error moving %s: %v", f.Name(), err)
		return res
	}
	res.Status, res.Moved, res.Destination = types.StatusOK, true, dest
	return res
}

func (p *Processor) safeExtract(path string) (doc epub.Document, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.NewExtractionError(path, errors.Malformed, fmt.Errorf("extractor panic: %v", rec))
		}
	}()
	doc, err = p.extract(path)
	if err != nil && !errors.IsExtraction(err) {
		err = errors.NewExtractionError(path, errors.Unreadable, err)
	}
	return doc, err
}
