package queue

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const defaultSweepBatch = 100

// PendingLister lists expired lots that have no sale yet.
type PendingLister interface {
	PendingFinalization(ctx context.Context, limit int) ([]string, error)
}

// Sweeper periodically feeds expired, unsold lots to the Dispatcher.
type Sweeper struct {
	lots       PendingLister
	dispatcher *Dispatcher
	batch      int
	log        zerolog.Logger
	cron       *cron.Cron
}

func NewSweeper(lots PendingLister, dispatcher *Dispatcher, batch int, log zerolog.Logger) *Sweeper {
	if batch <= 0 {
		batch = defaultSweepBatch
	}
	cl := cronLogger{log: log}
	return &Sweeper{
		lots:       lots,
		dispatcher: dispatcher,
		batch:      batch,
		log:        log,
		cron:       cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
	}
}

// RunOnce enqueues one batch of pending lots and returns how many were
// handed to the dispatcher.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	ids, err := s.lots.PendingFinalization(ctx, s.batch)
	if err != nil {
		return 0, fmt.Errorf("list pending lots: %w", err)
	}

	queued := 0
	for _, id := range ids {
		if !s.dispatcher.Enqueue(ctx, id) {
			break
		}
		queued++
	}
	if queued > 0 {
		s.log.Info().Int("lots", queued).Msg("expiry sweep queued lots")
	}
	return queued, ctx.Err()
}

// Start schedules RunOnce on the cron spec, e.g. "@every 30s".
func (s *Sweeper) Start(ctx context.Context, schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.log.Error().Err(err).Msg("expiry sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("sweep schedule %q: %w", schedule, err)
	}
	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits for a running sweep to return.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
