package scorebot

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"goscore/internal/domain/board"
	"goscore/internal/domain/score"
	errs "goscore/internal/errors"
	"goscore/internal/scoring"
)

type ScoringUseCase struct {
	cache       SnapshotCache
	results     ResultStore
	log         *zap.SugaredLogger
	ttl         time.Duration
	defaultKomi float64
}

func NewScoringUseCase(cache SnapshotCache, results ResultStore, log *zap.SugaredLogger, ttl time.Duration, defaultKomi float64) *ScoringUseCase {
	return &ScoringUseCase{
		cache:       cache,
		results:     results,
		log:         log,
		ttl:         ttl,
		defaultKomi: defaultKomi,
	}
}

// Options fills in the configured komi when the request has none.
func (u *ScoringUseCase) Options(req score.ScoringRequest) scoring.Options {
	opts := scoring.Options{
		Komi:          u.defaultKomi,
		BlackCaptures: req.BlackCaptures,
		WhiteCaptures: req.WhiteCaptures,
	}
	if req.Komi != nil {
		opts.Komi = *req.Komi
	}
	return opts
}

// Open returns the scorebot of a session that has not been finalized yet.
func (u *ScoringUseCase) Open(ctx context.Context, key string, b *board.Board, opts scoring.Options) (*Scorebot, error) {
	if _, done, err := u.results.GetResult(ctx, key); err != nil {
		return nil, fmt.Errorf("look up result %s: %w", key, err)
	} else if done {
		return nil, fmt.Errorf("%w: %s", errs.ErrSessionFinalized, key)
	}
	return New(ctx, u.cache, u.log, u.ttl, key, b, opts)
}

func (u *ScoringUseCase) Mark(ctx context.Context, key string, b *board.Board, opts scoring.Options, pos int, status score.MarkStatus) (*Scorebot, bool, error) {
	bot, err := u.Open(ctx, key, b, opts)
	if err != nil {
		return nil, false, err
	}
	changed, err := bot.Mark(ctx, pos, status)
	if err != nil {
		return nil, false, err
	}
	return bot, changed, nil
}

func (u *ScoringUseCase) Finalize(ctx context.Context, key string) (score.Result, error) {
	bot, err := u.Open(ctx, key, nil, scoring.Options{})
	if err != nil {
		return score.Result{}, err
	}
	res, err := bot.Finalize(ctx, u.results)
	if err != nil {
		return score.Result{}, err
	}
	u.log.Infow("scoring session finalized", "key", key, "winner", res.Winner, "margin", res.Margin)
	return res, nil
}

// Result returns the archived result of a finalized session.
func (u *ScoringUseCase) Result(ctx context.Context, key string) (score.Result, error) {
	res, ok, err := u.results.GetResult(ctx, key)
	if err != nil {
		return score.Result{}, err
	}
	if !ok {
		return score.Result{}, fmt.Errorf("%w: %s", errs.ErrSnapshotNotFound, key)
	}
	return res, nil
}
