// Package commands implements the docsite subcommands.
package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docsite/internal/build"
	"git.home.luguber.info/inful/docsite/internal/markdown"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/notify"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Verbose bool             `short:"v" help:"Enable verbose logging" env:"DOCSITE_VERBOSE"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Build the documentation site once"`
	Watch WatchCmd `cmd:"" help:"Build, then rebuild whenever the sources change"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// SiteFlags are shared by every command that builds a site.
type SiteFlags struct {
	Input          string `short:"i" required:"" type:"existingdir" help:"Documentation root holding the root .docConfig file." env:"DOCSITE_INPUT"`
	Output         string `short:"o" required:"" help:"Output directory for the generated site." env:"DOCSITE_OUTPUT"`
	ProjectVersion string `name:"project-version" short:"p" help:"Version of the documented project, shown in the navbar." env:"DOCSITE_VERSION"`
	Clean          bool   `help:"Remove the output directory before building." env:"DOCSITE_CLEAN"`
	Concurrency    int    `default:"1" help:"Number of pages rendered in parallel." env:"DOCSITE_CONCURRENCY"`
	Renderer       string `default:"goldmark" enum:"goldmark,gomarkdown" help:"Markdown engine (goldmark|gomarkdown)." env:"DOCSITE_RENDERER"`
	NATSURL        string `name:"nats-url" help:"Publish broken links and anchors to this NATS server." env:"DOCSITE_NATS_URL"`
	NATSSubject    string `name:"nats-subject" default:"docsite.issues" help:"Subject prefix for published issues." env:"DOCSITE_NATS_SUBJECT"`
}

// Request turns the flags into a build request.
func (f *SiteFlags) Request(strict bool) build.BuildRequest {
	return build.BuildRequest{
		InputDir:  f.Input,
		OutputDir: f.Output,
		Options: build.BuildOptions{
			Version:     f.ProjectVersion,
			Clean:       f.Clean,
			Concurrency: f.Concurrency,
			Strict:      strict,
		},
	}
}

// NewService wires a build service from the flags. The returned close
// function releases the publisher and must be called once builds are done.
func (f *SiteFlags) NewService(ctx context.Context, logger *slog.Logger, recorder metrics.Recorder) (*build.DefaultBuildService, func(), error) {
	engine, err := markdown.New(f.Renderer)
	if err != nil {
		return nil, nil, err
	}
	svc := build.NewBuildService().
		WithMarkdown(engine).
		WithLogger(logger).
		WithRecorder(recorder)

	closeFn := func() {}
	if f.NATSURL != "" {
		cfg := notify.DefaultNATSConfig(f.NATSURL)
		cfg.Subject = f.NATSSubject
		pub, err := notify.NewNATSPublisher(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		svc.WithPublisher(pub)
		closeFn = func() {
			if err := pub.Close(); err != nil {
				logger.Warn("Failed to close NATS connection", slog.String("error", err.Error()))
			}
		}
	}
	return svc, closeFn, nil
}
