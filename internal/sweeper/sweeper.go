// Package sweeper periodically refunds expired offers by issuing ordinary
// MonitorOffer calls against the engine.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/LeJamon/goMarketd/internal/core/offer"
	"github.com/LeJamon/goMarketd/internal/core/types"
)

// DefaultBatchSize bounds the offers refunded by one run.
const DefaultBatchSize = 256

// Engine is the part of the settlement engine the sweeper drives.
type Engine interface {
	Operator() types.Address
	ExpiredOffers(ctx context.Context, limit int) ([]*offer.Offer, error)
	MonitorOffer(ctx context.Context, caller types.Address, asset types.AssetID, index types.OfferIndex) (bool, error)
}

// Recorder receives the outcome of every run.
type Recorder interface {
	RecordSweep(refunded int, success bool)
}

type Config struct {
	// Schedule is a standard five-field cron expression or a descriptor such
	// as "@every 1m". Empty disables the sweeper.
	Schedule  string `mapstructure:"schedule" yaml:"schedule"`
	BatchSize int    `mapstructure:"batch_size" yaml:"batch_size"`
}

// Validate checks that the schedule parses.
func (c *Config) Validate() error {
	if c.Schedule == "" {
		return nil
	}
	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return fmt.Errorf("invalid sweeper schedule %q: %w", c.Schedule, err)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("sweeper batch size must be >= 0, got %d", c.BatchSize)
	}
	return nil
}

type Sweeper struct {
	engine   Engine
	cfg      Config
	recorder Recorder
	logger   *zap.Logger

	cron *cron.Cron

	// runMu keeps a slow run from overlapping the next tick.
	runMu sync.Mutex
}

// New creates a sweeper. recorder may be nil.
func New(engine Engine, cfg Config, recorder Recorder, logger *zap.Logger) (*Sweeper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Schedule == "" {
		return nil, errors.New("sweeper schedule is empty")
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Sweeper{
		engine:   engine,
		cfg:      cfg,
		recorder: recorder,
		logger:   logger.With(zap.String("module", "sweeper")),
		cron:     cron.New(),
	}
	if _, err := s.cron.AddFunc(cfg.Schedule, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			s.logger.Error("sweep failed", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("failed to schedule sweeper: %w", err)
	}
	return s, nil
}

// Run starts the schedule and blocks until ctx is done, then waits for a
// running sweep to finish.
func (s *Sweeper) Run(ctx context.Context) error {
	s.logger.Info("sweeper started", zap.String("schedule", s.cfg.Schedule))
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("sweeper stopped")
	return nil
}

// RunOnce refunds up to one batch of expired offers and returns how many it
// refunded. Offers closed concurrently are skipped.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	expired, err := s.engine.ExpiredOffers(ctx, s.cfg.BatchSize)
	if err != nil {
		s.record(0, false)
		return 0, fmt.Errorf("failed to list expired offers: %w", err)
	}

	operator := s.engine.Operator()
	refunded := 0
	for _, o := range expired {
		if err := ctx.Err(); err != nil {
			s.record(refunded, false)
			return refunded, err
		}

		ok, err := s.engine.MonitorOffer(ctx, operator, o.Asset, o.Index)
		switch {
		case err == nil && ok:
			refunded++
			s.logger.Debug("refunded expired offer",
				zap.Uint64("asset", uint64(o.Asset)),
				zap.Uint32("offer", uint32(o.Index)),
				zap.String("buyer", o.Buyer.String()))
		case err == nil, errors.Is(err, types.ErrOfferNotOpen):
			s.logger.Debug("offer no longer eligible",
				zap.Uint64("asset", uint64(o.Asset)),
				zap.Uint32("offer", uint32(o.Index)),
				zap.Error(err))
		default:
			s.record(refunded, false)
			return refunded, fmt.Errorf("asset %s offer %s: %w", o.Asset, o.Index, err)
		}
	}

	if refunded > 0 {
		s.logger.Info("sweep complete", zap.Int("refunded", refunded))
	}
	s.record(refunded, true)
	return refunded, nil
}

func (s *Sweeper) record(refunded int, success bool) {
	if s.recorder != nil {
		s.recorder.RecordSweep(refunded, success)
	}
}
