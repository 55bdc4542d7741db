package snapshot

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs an Exporter on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler registers exp under spec, parsed with parser.
func NewScheduler(spec string, parser cron.Parser, exp *Exporter, logger *slog.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		path, err := exp.Export(ctx)
		if err != nil {
			logger.Error("snapshot_failed", slog.String("error", err.Error()))
			return
		}
		logger.Info("snapshot_written", slog.String("path", path))
	})
	if err != nil {
		return nil, err
	}
	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for a running export to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
