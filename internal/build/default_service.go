package build

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docsite/internal/anchors"
	"git.home.luguber.info/inful/docsite/internal/assets"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/fsutil"
	"git.home.luguber.info/inful/docsite/internal/layout"
	"git.home.luguber.info/inful/docsite/internal/links"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/markdown"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/notify"
	"git.home.luguber.info/inful/docsite/internal/observability"
	"git.home.luguber.info/inful/docsite/internal/render"
	"git.home.luguber.info/inful/docsite/internal/search"
	"git.home.luguber.info/inful/docsite/internal/siteindex"
	"git.home.luguber.info/inful/docsite/internal/sitetree"
)

// Stage names used for logging and metrics labels.
const (
	StageClean   = "clean"
	StageConfig  = "config"
	StageAssets  = "assets"
	StageRender  = "render"
	StageResolve = "resolve"
	StageWrite   = "write"
)

const filePerm = 0o644

// DefaultBuildService is the standard implementation of BuildService.
type DefaultBuildService struct {
	recorder  metrics.Recorder
	publisher notify.Publisher
	markdown  markdown.Renderer
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// NewBuildService creates a DefaultBuildService rendering with goldmark and
// recording nothing.
func NewBuildService() *DefaultBuildService {
	return &DefaultBuildService{
		recorder:  metrics.NoopRecorder{},
		publisher: notify.NoopPublisher{},
		markdown:  markdown.NewGoldmark(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// WithRecorder sets the metrics recorder.
func (s *DefaultBuildService) WithRecorder(r metrics.Recorder) *DefaultBuildService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithPublisher sets where build issues and summaries are published.
func (s *DefaultBuildService) WithPublisher(p notify.Publisher) *DefaultBuildService {
	if p != nil {
		s.publisher = p
	}
	return s
}

// WithMarkdown selects the Markdown engine.
func (s *DefaultBuildService) WithMarkdown(m markdown.Renderer) *DefaultBuildService {
	if m != nil {
		s.markdown = m
	}
	return s
}

// WithLogger sets the base logger. Without one slog.Default() is used.
func (s *DefaultBuildService) WithLogger(l *slog.Logger) *DefaultBuildService {
	s.logger = l
	return s
}

// WithClock overrides the time source (for testing).
func (s *DefaultBuildService) WithClock(now func() time.Time) *DefaultBuildService {
	s.now = now
	return s
}

// Run executes the complete build pipeline.
func (s *DefaultBuildService) Run(ctx context.Context, req BuildRequest) (*Report, error) {
	report := &Report{
		BuildID:   s.newID(),
		InputDir:  req.InputDir,
		OutputDir: req.OutputDir,
		Version:   req.Options.Version,
		StartTime: s.now(),
	}
	ctx = observability.WithBuildID(ctx, report.BuildID)
	log := observability.Logger(ctx, s.logger)

	if req.InputDir == "" || req.OutputDir == "" {
		return s.finish(ctx, req, report, errors.ConfigError("input and output directories are required").Build())
	}
	log.Info("Starting build",
		slog.String("input", req.InputDir),
		logfields.Output(req.OutputDir),
		slog.Int("concurrency", concurrency(req.Options)))

	if req.Options.Clean {
		err := s.stage(ctx, StageClean, func(context.Context) error {
			return cleanOutput(req.InputDir, req.OutputDir)
		})
		if err != nil {
			return s.finish(ctx, req, report, err)
		}
	}

	var tree *sitetree.Tree
	err := s.stage(ctx, StageConfig, func(context.Context) error {
		var err error
		tree, err = sitetree.Build(req.InputDir, req.OutputDir, sitetree.Options{Version: req.Options.Version})
		return err
	})
	if err != nil {
		return s.finish(ctx, req, report, err)
	}
	report.InputDir, report.OutputDir = tree.InputDir, tree.OutputDir

	var pageAssets layout.Assets
	err = s.stage(ctx, StageAssets, func(ctx context.Context) error {
		var err error
		pageAssets, err = s.installAssets(ctx, tree)
		return err
	})
	if err != nil {
		return s.finish(ctx, req, report, err)
	}

	registry := anchors.NewRegistry()
	acc := siteindex.NewAccumulator(siteindex.WithClock(s.now))
	err = s.stage(ctx, StageRender, func(ctx context.Context) error {
		return s.renderPages(ctx, req.Options, tree, pageAssets, registry, acc, report)
	})
	if err != nil {
		return s.finish(ctx, req, report, err)
	}

	err = s.stage(ctx, StageResolve, func(ctx context.Context) error {
		s.resolveAnchors(ctx, registry, report)
		s.publishIssues(ctx, tree.InputDir, report)
		return nil
	})
	if err != nil {
		return s.finish(ctx, req, report, err)
	}

	err = s.stage(ctx, StageWrite, func(ctx context.Context) error {
		s.writeIndexes(ctx, tree, acc, report)
		return nil
	})
	return s.finish(ctx, req, report, err)
}

// stage runs fn with the stage name on its context and records its duration
// and result.
func (s *DefaultBuildService) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		s.recorder.IncStageResult(name, metrics.ResultCanceled)
		return err
	}
	start := time.Now()
	ctx = observability.WithStage(ctx, name)
	err := fn(ctx)
	s.recorder.ObserveStageDuration(name, time.Since(start))

	switch {
	case err == nil:
		s.recorder.IncStageResult(name, metrics.ResultSuccess)
	case ctx.Err() != nil:
		s.recorder.IncStageResult(name, metrics.ResultCanceled)
	default:
		s.recorder.IncStageResult(name, metrics.ResultFailed)
	}
	observability.Logger(ctx, s.logger).Debug("Stage finished",
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000),
		slog.Bool("ok", err == nil))
	return err
}

func (s *DefaultBuildService) finish(ctx context.Context, req BuildRequest, report *Report, err error) (*Report, error) {
	report.EndTime = s.now()
	report.Duration = report.EndTime.Sub(report.StartTime)
	log := observability.Logger(ctx, s.logger)

	switch {
	case err != nil && ctx.Err() != nil:
		report.Status = BuildStatusCancelled
	case err != nil:
		report.Status = BuildStatusFailed
	case report.HasIssues():
		report.Status = BuildStatusWarning
	default:
		report.Status = BuildStatusSuccess
	}
	s.recorder.IncBuildOutcome(outcomeLabel(report.Status))
	s.recorder.ObserveBuildDuration(report.Duration)

	summary := notify.BuildSummary{
		BuildID:       report.BuildID,
		InputDir:      report.InputDir,
		Version:       report.Version,
		Outcome:       string(report.Status),
		PagesRendered: report.PagesRendered,
		PagesFailed:   report.PagesFailed,
		BrokenLinks:   len(report.BrokenLinks),
		AnchorIssues:  report.AnchorsNotFound(),
		Duration:      report.Duration,
		FinishedAt:    report.EndTime,
	}
	if perr := s.publisher.PublishSummary(context.WithoutCancel(ctx), summary); perr != nil {
		log.Warn("Could not publish build summary", logfields.Error(perr))
	}

	if err != nil {
		return report, err
	}
	log.Info("Build finished",
		slog.String("status", string(report.Status)),
		slog.Int("pages", report.PagesRendered),
		slog.Int("failed_pages", report.PagesFailed),
		slog.Int("broken_links", len(report.BrokenLinks)),
		slog.Int("anchor_issues", report.AnchorsNotFound()),
		logfields.DurationMS(float64(report.Duration.Milliseconds())))

	if req.Options.Strict && report.HasIssues() {
		return report, errors.ValidationError("build finished with issues").
			WithCause(ErrIssuesFound).
			WithContext("failed_pages", report.PagesFailed).
			WithContext("broken_links", len(report.BrokenLinks)).
			WithContext("anchor_issues", report.AnchorsNotFound()).
			Build()
	}
	return report, nil
}

func outcomeLabel(s BuildStatus) metrics.BuildOutcomeLabel {
	switch s {
	case BuildStatusSuccess:
		return metrics.BuildOutcomeSuccess
	case BuildStatusWarning:
		return metrics.BuildOutcomeWarning
	case BuildStatusCancelled:
		return metrics.BuildOutcomeCanceled
	default:
		return metrics.BuildOutcomeFailed
	}
}

func concurrency(opts BuildOptions) int {
	return max(1, opts.Concurrency)
}

// cleanOutput removes outputDir. It refuses when the input lives inside the
// output directory.
func cleanOutput(inputDir, outputDir string) error {
	in, err := filepath.Abs(inputDir)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "cannot resolve input directory").Build()
	}
	out, err := filepath.Abs(outputDir)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "cannot resolve output directory").Build()
	}
	if fsutil.Within(out, in) {
		return errors.ConfigError("refusing to clean an output directory that contains the input directory").
			WithContext("output", out).
			WithContext("input", in).
			Build()
	}
	if err := os.RemoveAll(out); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to clean output directory").
			WithContext("output", out).Build()
	}
	return nil
}

// installAssets writes the embedded stylesheets and script and copies the
// logo and favicon. A logo or favicon outside the input root is fatal; a
// missing one only loses the image.
func (s *DefaultBuildService) installAssets(ctx context.Context, tree *sitetree.Tree) (layout.Assets, error) {
	log := observability.Logger(ctx, s.logger)
	inst, err := assets.Install(tree.OutputDir)
	if err != nil {
		return layout.Assets{}, err
	}

	var rootFiles []string
	if tree.Logo != nil && tree.Logo.SrcPath != "" {
		rootFiles = append(rootFiles, tree.Logo.SrcPath)
	}
	if tree.FaviconSrcPath != "" {
		rootFiles = append(rootFiles, tree.FaviconSrcPath)
	}
	for _, rel := range rootFiles {
		if _, err := assets.CopyRootFile(tree.InputDir, tree.OutputDir, rel); err != nil {
			if errors.HasCategory(err, errors.CategoryValidation) {
				return layout.Assets{}, err
			}
			log.Warn("Could not copy site image", logfields.File(rel), logfields.Error(err))
		}
	}
	return layout.Assets{CSS: inst.CSS, Scripts: inst.Scripts}, nil
}

// pageOutcome is what rendering one page contributes to the build.
type pageOutcome struct {
	url     string
	records []search.Record
	broken  []links.BrokenLink
	err     error
}

// renderPages renders every page with bounded concurrency. Outcomes are
// stored by tree index and folded in tree order after the barrier, so the
// accumulated output does not depend on scheduling.
func (s *DefaultBuildService) renderPages(ctx context.Context, opts BuildOptions, tree *sitetree.Tree,
	pageAssets layout.Assets, registry *anchors.Registry, acc *siteindex.Accumulator, report *Report,
) error {
	log := observability.Logger(ctx, s.logger)
	pages := tree.Pages()
	report.PagesTotal = len(pages)
	outcomes := make([]pageOutcome, len(pages))

	limit := concurrency(opts)
	s.recorder.SetRenderConcurrency(limit)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, ref := range pages {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcomes[i] = s.renderPage(gctx, tree, ref, pageAssets, registry)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	for i, o := range outcomes {
		report.BrokenLinks = append(report.BrokenLinks, o.broken...)
		if o.err != nil {
			report.PagesFailed++
			report.FailedPages = append(report.FailedPages, PageFailure{InputFile: pages[i].InputFile, Err: o.err})
			continue
		}
		report.PagesRendered++
		acc.AddSearchRecords(o.url, o.records)
		if tree.SiteMapRoot == "" {
			continue
		}
		abs, err := siteindex.AbsoluteURL(tree.SiteMapRoot, o.url)
		if err != nil {
			log.Warn("Could not create sitemap URL", logfields.Link(o.url), logfields.Error(err))
			continue
		}
		acc.AddSiteMapURL(abs)
	}
	s.recorder.AddBrokenLinks(len(report.BrokenLinks))
	return nil
}

// renderPage renders, lays out and writes one page. Its anchors are
// recorded only once the page is on disk, so a failed page exposes none.
func (s *DefaultBuildService) renderPage(ctx context.Context, tree *sitetree.Tree, ref sitetree.PageRef,
	pageAssets layout.Assets, registry *anchors.Registry,
) (o pageOutcome) {
	start := time.Now()
	ctx = observability.WithFile(ctx, ref.InputFile)
	log := observability.Logger(ctx, s.logger)
	o.url = links.RelativeURL(ref.OutputFile, tree.OutputDir)
	defer func() {
		s.recorder.ObservePageDuration(time.Since(start))
		switch {
		case o.err != nil:
			s.recorder.IncPageResult(metrics.ResultFailed)
			log.Warn("Page skipped", logfields.Error(o.err))
		case len(o.broken) > 0:
			s.recorder.IncPageResult(metrics.ResultWarning)
		default:
			s.recorder.IncPageResult(metrics.ResultSuccess)
		}
	}()

	r := render.New(render.Options{
		Markdown:   s.markdown,
		Files:      tree.Files,
		Refs:       registry,
		OutputRoot: tree.OutputDir,
		Logger:     log,
		OnBroken:   func(b links.BrokenLink) { o.broken = append(o.broken, b) },
	})
	res, err := r.Render(ctx, render.Page{InputFile: ref.InputFile, OutputFile: ref.OutputFile})
	if err != nil {
		o.err = err
		return o
	}

	toc, err := r.TOCHTML(res)
	if err != nil {
		log.Warn("Could not render table of contents", logfields.Error(err))
		toc = ""
	}
	page := layout.NewPage(tree, ref, pageAssets)
	if res.Meta.Title != "" {
		page.Title = res.Meta.Title
	}
	page.Description = res.Meta.Description
	page.Content = template.HTML(res.Body) //nolint:gosec // rendered from trusted Markdown
	page.TOC = template.HTML(toc)          //nolint:gosec // rendered from generated Markdown

	var buf bytes.Buffer
	if err := layout.Render(&buf, page); err != nil {
		o.err = err
		return o
	}
	if err := fsutil.WriteFileAtomic(ref.OutputFile, buf.Bytes(), filePerm); err != nil {
		o.err = err
		return o
	}
	registry.RecordAnchors(ref.InputFile, res.Anchors)

	records, err := search.Extract(res.Body)
	if err != nil {
		log.Warn("Could not index page for search", logfields.Error(err))
	}
	o.records = records
	log.Debug("Page written", logfields.Output(ref.OutputFile), slog.Int("anchors", len(res.Anchors)))
	return o
}

// resolveAnchors runs the single resolution pass over every queued anchor
// reference.
func (s *DefaultBuildService) resolveAnchors(ctx context.Context, registry *anchors.Registry, report *Report) {
	log := observability.Logger(ctx, s.logger)
	res := registry.Seal()
	report.References = res.References()

	counts := map[anchors.Validity]int{}
	for _, is := range res.ResolveAll() {
		issue := AnchorIssue{Issue: is}
		counts[is.Validity]++
		if is.Validity == anchors.AnchorNotFound {
			issue.Available, _ = res.AnchorsFor(is.TargetFile)
			log.Warn("A referenced anchor link was not found",
				logfields.File(is.CitingFile),
				logfields.Target(is.TargetFile),
				logfields.Anchor(is.Anchor),
				logfields.Available(issue.Available))
		} else {
			log.Debug("Anchor reference into a page that was not rendered",
				logfields.File(is.CitingFile),
				logfields.Target(is.TargetFile),
				logfields.Anchor(is.Anchor))
		}
		report.AnchorIssues = append(report.AnchorIssues, issue)
	}
	for v, n := range counts {
		s.recorder.AddAnchorIssues(v.String(), n)
	}
}

func (s *DefaultBuildService) publishIssues(ctx context.Context, inputDir string, report *Report) {
	log := observability.Logger(ctx, s.logger)
	now := s.now()
	var events []notify.IssueEvent
	for _, b := range report.BrokenLinks {
		events = append(events, notify.IssueEvent{
			Kind:               notify.KindBrokenLink,
			SourceFile:         b.SourceFile,
			SourceRelativePath: relativeTo(inputDir, b.SourceFile),
			Link:               b.Link,
			TargetFile:         b.Target,
		})
	}
	for _, is := range report.AnchorIssues {
		kind := notify.KindAnchorNotFound
		if is.Validity == anchors.FileNotFound {
			kind = notify.KindFileNotFound
		}
		events = append(events, notify.IssueEvent{
			Kind:               kind,
			SourceFile:         is.CitingFile,
			SourceRelativePath: relativeTo(inputDir, is.CitingFile),
			TargetFile:         is.TargetFile,
			Anchor:             is.Anchor,
			AvailableAnchors:   is.Available,
		})
	}
	for _, ev := range events {
		ev.BuildID = report.BuildID
		ev.Timestamp = now
		if err := s.publisher.PublishIssue(ctx, ev); err != nil {
			log.Warn("Could not publish build issue", slog.String("kind", string(ev.Kind)), logfields.Error(err))
			return
		}
	}
}

// writeIndexes writes searchIndex.json and, when a site-map root is
// configured, sitemap.xml. Failures are warnings: the pages are already
// written and valid.
func (s *DefaultBuildService) writeIndexes(ctx context.Context, tree *sitetree.Tree, acc *siteindex.Accumulator, report *Report) {
	log := observability.Logger(ctx, s.logger)

	if data, err := acc.SerializeSearchIndex(); err != nil {
		log.Warn("Could not create search index", logfields.Error(err))
	} else if err := fsutil.WriteFileAtomic(filepath.Join(tree.OutputDir, siteindex.SearchIndexFile), data, filePerm); err != nil {
		log.Warn("Could not create search index", logfields.Error(err))
	} else {
		report.SearchIndexWritten = true
	}

	if tree.SiteMapRoot == "" {
		return
	}
	if data, err := acc.SerializeSitemap(); err != nil {
		log.Warn("Could not create sitemap file", logfields.Error(err))
	} else if err := fsutil.WriteFileAtomic(filepath.Join(tree.OutputDir, siteindex.SitemapFile), data, filePerm); err != nil {
		log.Warn("Could not create sitemap file", logfields.Error(err))
	} else {
		report.SitemapWritten = true
		log.Debug("Sitemap written", logfields.Count(acc.SitemapLen()))
	}
}

func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
