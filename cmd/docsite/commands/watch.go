package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/preview"
)

// WatchCmd rebuilds the site whenever its sources change and optionally
// serves it.
type WatchCmd struct {
	SiteFlags

	Listen       string        `help:"Serve the output directory on this address (e.g. :8080)." env:"DOCSITE_LISTEN"`
	RebuildEvery time.Duration `name:"rebuild-every" help:"Also rebuild on this interval (e.g. 10m); 0 disables." env:"DOCSITE_REBUILD_EVERY"`
	Debounce     time.Duration `default:"300ms" help:"Quiet period after a change before rebuilding." env:"DOCSITE_DEBOUNCE"`
}

func (w *WatchCmd) Run(g *Global, _ *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	prom := metrics.NewPrometheusRecorder(nil)
	svc, closeFn, err := w.NewService(ctx, g.Logger, prom)
	if err != nil {
		return err
	}
	defer closeFn()

	p := preview.New(svc, preview.Config{
		Request:      w.Request(false),
		Listen:       w.Listen,
		RebuildEvery: w.RebuildEvery,
		Debounce:     w.Debounce,
		Metrics:      prom.HTTPHandler(),
		Logger:       g.Logger,
	})
	return p.Run(ctx)
}
