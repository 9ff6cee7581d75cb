package preview

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// scheduler wraps gocron to request periodic rebuilds.
type scheduler struct {
	s   gocron.Scheduler
	log *slog.Logger
}

// newScheduler schedules trigger every interval. trigger only requests a
// rebuild; the rebuild itself runs on the preview's worker.
func newScheduler(interval time.Duration, trigger func(), log *slog.Logger) (*scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to create scheduler").Build()
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			log.Info("Executing scheduled rebuild", slog.Duration("interval", interval))
			trigger()
		}),
		gocron.WithName("periodic-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to create periodic rebuild job").
			WithContext("interval", interval.String()).Build()
	}
	return &scheduler{s: s, log: log}, nil
}

func (s *scheduler) start() {
	s.log.Info("Starting scheduler")
	s.s.Start()
}

func (s *scheduler) stop() {
	if err := s.s.Shutdown(); err != nil {
		s.log.Warn("Scheduler shutdown error", logfields.Error(err))
	}
}
