package scorebot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"goscore/internal/domain/board"
	"goscore/internal/domain/score"
	"goscore/internal/domain/sgf"
	errs "goscore/internal/errors"
	"goscore/internal/scoring"
)

// SnapshotCache keeps scoring snapshots between requests. Get returns
// ErrSnapshotNotFound for a missing key, CompareAndSwap returns ErrSnapshotConflict
// when the stored bytes differ from old.
type SnapshotCache interface {
	Exists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	CompareAndSwap(ctx context.Context, key string, old, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type ResultStore interface {
	SaveResult(ctx context.Context, result score.Result) error
	GetResult(ctx context.Context, key string) (score.Result, bool, error)
}

type envelope struct {
	Checksum uint64          `json:"checksum"`
	Snapshot json.RawMessage `json:"snapshot"`
}

func seal(snapshot []byte) ([]byte, error) {
	return json.Marshal(envelope{Checksum: xxhash.Sum64(snapshot), Snapshot: snapshot})
}

func unseal(data []byte) (*scoring.Engine, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrSnapshotCorrupt, err)
	}
	if xxhash.Sum64(env.Snapshot) != env.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch", errs.ErrSnapshotCorrupt)
	}
	return scoring.Restore(env.Snapshot)
}

// Scorebot serves one scoring session. Every change is written back to the cache with
// a compare-and-swap against the bytes the bot loaded, so two concurrent marks on the
// same session cannot silently overwrite each other.
type Scorebot struct {
	cache  SnapshotCache
	log    *zap.SugaredLogger
	ttl    time.Duration
	key    string
	engine *scoring.Engine
	stored []byte
}

// New loads the session stored under key. A missing session is analyzed from b and
// persisted; b may be nil when the session is expected to exist. A corrupt snapshot
// is logged and rebuilt from b.
func New(ctx context.Context, cache SnapshotCache, log *zap.SugaredLogger, ttl time.Duration, key string,
	b *board.Board, opts scoring.Options) (*Scorebot, error) {
	bot := &Scorebot{cache: cache, log: log, ttl: ttl, key: key}

	exists, err := cache.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("check scoring session %s: %w", key, err)
	}
	if exists {
		data, err := cache.Get(ctx, key)
		switch {
		case err == nil:
			engine, err := unseal(data)
			if err == nil {
				bot.engine, bot.stored = engine, data
				return bot, bot.touch(ctx)
			}
			log.Warnw("scoring snapshot is unusable, rebuilding", "key", key, "error", err)
		case !errors.Is(err, errs.ErrSnapshotNotFound):
			return nil, fmt.Errorf("load scoring session %s: %w", key, err)
		}
	}

	if b == nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrSnapshotNotFound, key)
	}
	bot.engine = scoring.Analyze(b, opts)
	data, err := bot.encode()
	if err != nil {
		return nil, err
	}
	if err = cache.Set(ctx, key, data, ttl); err != nil {
		return nil, fmt.Errorf("store scoring session %s: %w", key, err)
	}
	bot.stored = data
	log.Infow("scoring session analyzed", "key", key, "board_size", b.Size)
	return bot, nil
}

func (s *Scorebot) encode() ([]byte, error) {
	snapshot, err := s.engine.Snapshot()
	if err != nil {
		return nil, err
	}
	return seal(snapshot)
}

func (s *Scorebot) touch(ctx context.Context) error {
	if err := s.cache.Expire(ctx, s.key, s.ttl); err != nil {
		return fmt.Errorf("refresh scoring session %s: %w", s.key, err)
	}
	return nil
}

// Mark marks the chain on pos dead or alive again. It reports false when the mark
// changes nothing. On a write conflict the bot rolls back to the stored state.
func (s *Scorebot) Mark(ctx context.Context, pos int, status score.MarkStatus) (bool, error) {
	var changed bool
	switch status {
	case score.StatusDead:
		changed = s.engine.MarkAsDead(pos)
	case score.StatusAlive:
		changed = s.engine.MarkAsNotDead(pos)
	default:
		return false, fmt.Errorf("%w: %q", errs.ErrUnknownMarkStatus, status)
	}
	if !changed {
		return false, s.touch(ctx)
	}

	data, err := s.encode()
	if err == nil {
		err = s.cache.CompareAndSwap(ctx, s.key, s.stored, data, s.ttl)
	}
	if err != nil {
		if engine, rerr := unseal(s.stored); rerr == nil {
			s.engine = engine
		}
		return false, fmt.Errorf("save scoring session %s: %w", s.key, err)
	}
	s.stored = data
	s.log.Debugw("chain marked", "key", s.key, "position", pos, "status", status)
	return true, nil
}

func (s *Scorebot) Key() string {
	return s.key
}

func (s *Scorebot) BlackPointCount() float64 {
	return s.engine.BlackPointCount()
}

func (s *Scorebot) WhitePointCount() float64 {
	return s.engine.WhitePointCount()
}

func (s *Scorebot) TerritoryStatus(pos int) scoring.TerritoryStatus {
	return s.engine.TerritoryStatus(pos)
}

func (s *Scorebot) ChangedTiles() []int {
	return s.engine.ChangedTiles()
}

func (s *Scorebot) DeadStones() []int {
	return s.engine.DeadStones()
}

// Summary reports the counts together with the territory of every changed tile.
func (s *Scorebot) Summary() score.Summary {
	changed := s.engine.ChangedTiles()
	territory := make([]score.TileTerritory, 0, len(changed))
	for _, pos := range changed {
		territory = append(territory, score.TileTerritory{Position: pos, Status: s.engine.TerritoryStatus(pos).String()})
	}
	return score.Summary{
		BlackPoints:    s.engine.BlackPointCount(),
		WhitePoints:    s.engine.WhitePointCount(),
		BlackTerritory: s.engine.TerritoryCount(board.Black),
		WhiteTerritory: s.engine.TerritoryCount(board.White),
		DeadStones:     s.engine.DeadStones(),
		ChangedTiles:   changed,
		Territory:      territory,
	}
}

func (s *Scorebot) territoryOf(status scoring.TerritoryStatus) []int {
	res := make([]int, 0)
	for pos, t := range s.engine.Territory() {
		if t == status {
			res = append(res, pos)
		}
	}
	return res
}

// Finalize archives the current result and closes the session.
func (s *Scorebot) Finalize(ctx context.Context, results ResultStore) (score.Result, error) {
	black, white := s.engine.BlackPointCount(), s.engine.WhitePointCount()
	winner, margin := score.Winner(black, white)
	res := score.Result{
		SessionKey:     s.key,
		BoardSize:      s.engine.Board().Size,
		Komi:           s.engine.Komi(),
		BlackPoints:    black,
		WhitePoints:    white,
		BlackTerritory: s.engine.TerritoryCount(board.Black),
		WhiteTerritory: s.engine.TerritoryCount(board.White),
		DeadStones:     s.engine.DeadStones(),
		Winner:         winner,
		Margin:         margin,
		FinishedAt:     time.Now().UTC(),
	}
	res.SGF = sgf.Serialize(sgf.FromScoredPosition(sgf.ScoredPosition{
		Board:          s.engine.Board(),
		Komi:           res.Komi,
		BlackTerritory: s.territoryOf(scoring.BlackTerritory),
		WhiteTerritory: s.territoryOf(scoring.WhiteTerritory),
		Winner:         winner,
		Margin:         margin,
	}))
	if err := results.SaveResult(ctx, res); err != nil {
		return score.Result{}, fmt.Errorf("archive scoring session %s: %w", s.key, err)
	}
	if err := s.cache.Delete(ctx, s.key); err != nil {
		s.log.Warnw("failed to drop finalized scoring session", "key", s.key, "error", err)
	}
	return res, nil
}
