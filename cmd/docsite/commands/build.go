package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/docsite/internal/build"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	SiteFlags

	Strict      bool   `help:"Exit non-zero when pages fail, links are broken or anchors do not resolve." env:"DOCSITE_STRICT"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics in text format to this file after the build." env:"DOCSITE_METRICS_FILE"`

	// Stdout receives the summary line; nil means os.Stdout.
	Stdout io.Writer `kong:"-"`
}

func (b *BuildCmd) Run(g *Global, _ *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var prom *metrics.PrometheusRecorder
	if b.MetricsFile != "" {
		prom = metrics.NewPrometheusRecorder(nil)
		recorder = prom
	}

	svc, closeFn, err := b.NewService(ctx, g.Logger, recorder)
	if err != nil {
		return err
	}
	defer closeFn()

	report, runErr := svc.Run(ctx, b.Request(b.Strict))

	if prom != nil {
		if err := prom.WriteTextfile(b.MetricsFile); err != nil {
			g.Logger.Warn("Could not write metrics file", logfields.Error(err))
		}
	}
	if report != nil && report.Status.IsSuccess() {
		printSummary(b.stdout(), report)
	}
	return runErr
}

func (b *BuildCmd) stdout() io.Writer {
	if b.Stdout != nil {
		return b.Stdout
	}
	return os.Stdout
}

func printSummary(w io.Writer, r *build.Report) {
	_, _ = fmt.Fprintf(w, "Built %d of %d pages into %s in %s (%d broken links, %d unresolved anchors)\n",
		r.PagesRendered, r.PagesTotal, r.OutputDir, r.Duration.Round(1e6), len(r.BrokenLinks), r.AnchorsNotFound())
}
