// Package preview keeps a generated site up to date while its sources are
// edited: it rebuilds on file changes (debounced) and optionally on a fixed
// interval, and can serve the output directory over HTTP.
package preview

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/docsite/internal/build"
	"git.home.luguber.info/inful/docsite/internal/config"
	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/fsutil"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// DefaultDebounce is how long the file tree must stay quiet before a
// rebuild starts.
const DefaultDebounce = 300 * time.Millisecond

// Config configures a Preview.
type Config struct {
	Request build.BuildRequest

	// Listen is the HTTP address serving the output directory. Empty
	// disables the server.
	Listen string

	// RebuildEvery triggers periodic full rebuilds. Zero disables them.
	RebuildEvery time.Duration

	Debounce time.Duration

	// Metrics, when set, is served at /metrics.
	Metrics http.Handler

	Logger *slog.Logger
}

// Preview runs the watch-and-rebuild loop.
type Preview struct {
	cfg    Config
	svc    build.BuildService
	log    *slog.Logger
	status *buildStatus

	// building serializes builds triggered by the watcher, the scheduler
	// and callers of Rebuild.
	building sync.Mutex
}

// New returns a Preview building with svc.
func New(svc build.BuildService, cfg Config) *Preview {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Preview{cfg: cfg, svc: svc, log: cfg.Logger, status: &buildStatus{}}
}

// Status returns the state of the last build.
func (p *Preview) Status() Status {
	return p.status.snapshot()
}

// Rebuild runs one full build and records its outcome. Build errors are
// logged, not returned: the preview keeps running so the sources can be
// fixed.
func (p *Preview) Rebuild(ctx context.Context) {
	p.building.Lock()
	defer p.building.Unlock()

	report, err := p.svc.Run(ctx, p.cfg.Request)
	if err != nil && ctx.Err() == nil {
		p.log.Warn("Rebuild failed", logfields.Error(err))
	}
	p.status.record(report, err)
}

// Run builds once, then rebuilds on changes until ctx is done.
func (p *Preview) Run(ctx context.Context) error {
	in, err := filepath.Abs(p.cfg.Request.InputDir)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryConfig, "cannot resolve input directory").Build()
	}
	out, err := filepath.Abs(p.cfg.Request.OutputDir)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryConfig, "cannot resolve output directory").Build()
	}

	p.Rebuild(ctx)

	w, err := newWatcher(in, out, p.log)
	if err != nil {
		return err
	}
	defer func() { _ = w.close() }()

	// Cancelled before wg.Wait runs so that every return path stops the worker.
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	rebuildReq, trigger := newDebouncer(p.cfg.Debounce)
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.rebuildWorker(ctx, rebuildReq)
	}()

	if p.cfg.RebuildEvery > 0 {
		sched, err := newScheduler(p.cfg.RebuildEvery, trigger, p.log)
		if err != nil {
			return err
		}
		sched.start()
		defer sched.stop()
	}

	serveErr := make(chan error, 1)
	if p.cfg.Listen != "" {
		srv, err := p.listen(ctx)
		if err != nil {
			return err
		}
		go func() {
			if err := srv.serve(); err != nil {
				serveErr <- err
			}
		}()
		defer srv.shutdown()
	}

	p.log.Info("Watching for changes", slog.String("dir", in))
	for {
		select {
		case <-ctx.Done():
			p.log.Info("Stopping preview")
			return nil
		case err := <-serveErr:
			return err
		case ev, ok := <-w.events():
			if !ok {
				return nil
			}
			if w.handle(ev) {
				trigger()
			}
		case err, ok := <-w.errs():
			if !ok {
				return nil
			}
			p.log.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (p *Preview) rebuildWorker(ctx context.Context, rebuildReq <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-rebuildReq:
			p.log.Info("Change detected; rebuilding site")
			p.Rebuild(ctx)
		}
	}
}

// newDebouncer returns the rebuild request channel and the trigger feeding
// it. Triggers closer together than delay collapse into one request, and a
// request arriving while another is pending is dropped.
func newDebouncer(delay time.Duration) (<-chan struct{}, func()) {
	var mu sync.Mutex
	var timer *time.Timer
	rebuildReq := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(delay, func() {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		})
	}
	return rebuildReq, trigger
}

type server struct {
	http *http.Server
	ln   net.Listener
	log  *slog.Logger
}

func (p *Preview) listen(ctx context.Context) (*server, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", p.cfg.Listen)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryNetwork, "failed to listen").
			WithContext("addr", p.cfg.Listen).Build()
	}
	p.log.Info("Preview server listening", slog.String("url", "http://"+ln.Addr().String()))
	return &server{
		http: &http.Server{
			Handler:           p.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		ln:  ln,
		log: p.log,
	}, nil
}

func (s *server) serve() error {
	if err := s.http.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return derrors.WrapError(err, derrors.CategoryNetwork, "preview server failed").Build()
	}
	return nil
}

func (s *server) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		s.log.Warn("HTTP server shutdown error", logfields.Error(err))
	}
}

// watcher wraps fsnotify, watching every directory below root.
type watcher struct {
	fs        *fsnotify.Watcher
	root      string
	outputDir string
	log       *slog.Logger
}

func newWatcher(root, outputDir string, log *slog.Logger) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryInternal, "failed to create file watcher").Build()
	}
	w := &watcher{fs: fw, root: root, outputDir: outputDir, log: log}
	w.addDirsRecursive(root)
	return w, nil
}

func (w *watcher) events() <-chan fsnotify.Event { return w.fs.Events }
func (w *watcher) errs() <-chan error            { return w.fs.Errors }
func (w *watcher) close() error                  { return w.fs.Close() }

// handle reacts to one event and reports whether it should trigger a
// rebuild. New directories are watched as they appear.
func (w *watcher) handle(ev fsnotify.Event) bool {
	if shouldIgnoreEvent(ev.Name, w.outputDir) {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addDirsRecursive(ev.Name)
		}
	}
	w.log.Debug("File change detected", logfields.File(ev.Name), slog.String("op", ev.Op.String()))
	return true
}

func (w *watcher) addDirsRecursive(root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if fsutil.Within(w.outputDir, path) {
			return filepath.SkipDir
		}
		if path != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			w.log.Warn("Watch add failed", slog.String("dir", path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnoreEvent returns true for filesystem events that should not
// trigger rebuilds: anything inside the output directory, hidden files other
// than documentation configs, and editor temp files.
func shouldIgnoreEvent(path, outputDir string) bool {
	if outputDir != "" && fsutil.Within(outputDir, path) {
		return true
	}
	base := filepath.Base(path)

	if strings.HasPrefix(base, config.FileBaseName+".") {
		return false
	}
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db" || base == "4913"
}
