package scorebot

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"goscore/internal/domain/board"
	"goscore/internal/domain/score"
	errs "goscore/internal/errors"
	repo "goscore/internal/repository"
	"goscore/internal/scoring"
)

const (
	sessionKey = "session"
	ttl        = 10 * time.Minute
	// black group with a single two tile eye, lone white stone, living white wall
	linked5 = "|_|_|b|w|_|,|b|b|b|b|b|,|w|w|w|w|w|,|_|_|_|_|_|,|_|_|_|_|_|"
)

func mustParse(t *testing.T, s string) *board.Board {
	t.Helper()
	b, err := board.Parse(s)
	require.NoError(t, err)
	return b
}

func newBot(t *testing.T, cache SnapshotCache, b *board.Board) *Scorebot {
	t.Helper()
	bot, err := New(context.Background(), cache, zaptest.NewLogger(t).Sugar(), ttl, sessionKey, b, scoring.Options{})
	require.NoError(t, err)
	return bot
}

func TestNewAnalyzesAndPersists(t *testing.T) {
	ctx := context.Background()
	cache := repo.NewSnapshotMapStorage()

	bot := newBot(t, cache, mustParse(t, linked5))
	assert.Equal(t, 10.0, bot.WhitePointCount())
	assert.Equal(t, 0.0, bot.BlackPointCount())
	assert.Equal(t, []int{15, 16, 17, 18, 19, 20, 21, 22, 23, 24}, bot.ChangedTiles())

	ok, err := cache.Exists(ctx, sessionKey)
	require.NoError(t, err)
	assert.True(t, ok)

	reloaded := newBot(t, cache, nil)
	assert.Equal(t, bot.Summary(), reloaded.Summary())
	assert.Equal(t, scoring.WhiteTerritory, reloaded.TerritoryStatus(20))
}

func TestNewWithoutSessionOrBoard(t *testing.T) {
	_, err := New(context.Background(), repo.NewSnapshotMapStorage(), zaptest.NewLogger(t).Sugar(), ttl, sessionKey, nil, scoring.Options{})
	assert.ErrorIs(t, err, errs.ErrSnapshotNotFound)
}

func TestMarkPersistsChanges(t *testing.T) {
	ctx := context.Background()
	cache := repo.NewSnapshotMapStorage()
	bot := newBot(t, cache, mustParse(t, linked5))

	changed, err := bot.Mark(ctx, 3, score.StatusDead)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []int{0, 1, 3, 4}, bot.ChangedTiles())
	assert.Equal(t, 5.0, bot.BlackPointCount())

	changed, err = bot.Mark(ctx, 3, score.StatusDead)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = bot.Mark(ctx, 3, score.MarkStatus("sleeping"))
	assert.ErrorIs(t, err, errs.ErrUnknownMarkStatus)

	reloaded := newBot(t, cache, nil)
	assert.Equal(t, []int{3}, reloaded.DeadStones())
	assert.Equal(t, 5.0, reloaded.BlackPointCount())

	changed, err = reloaded.Mark(ctx, 3, score.StatusAlive)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, reloaded.DeadStones())
	assert.Equal(t, 0.0, reloaded.BlackPointCount())
}

func TestConcurrentMarkConflicts(t *testing.T) {
	ctx := context.Background()
	cache := repo.NewSnapshotMapStorage()
	newBot(t, cache, mustParse(t, linked5))

	first := newBot(t, cache, nil)
	second := newBot(t, cache, nil)

	changed, err := first.Mark(ctx, 3, score.StatusDead)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = second.Mark(ctx, 2, score.StatusDead)
	assert.ErrorIs(t, err, errs.ErrSnapshotConflict)
	assert.False(t, changed)
	assert.Empty(t, second.DeadStones())

	reloaded := newBot(t, cache, nil)
	assert.Equal(t, []int{3}, reloaded.DeadStones())
}

func TestCorruptSnapshotIsRebuilt(t *testing.T) {
	ctx := context.Background()
	b := mustParse(t, linked5)

	valid := repo.NewSnapshotMapStorage()
	newBot(t, valid, b)
	data, err := valid.Get(ctx, sessionKey)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(data, &env))
	env.Checksum++
	tampered, err := json.Marshal(env)
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{"garbage", []byte("garbage")},
		{"checksum mismatch", tampered},
		{"empty snapshot", []byte(`{"checksum":0,"snapshot":{}}`)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cache := repo.NewSnapshotMapStorage()
			require.NoError(t, cache.Set(ctx, sessionKey, tc.data, ttl))

			core, logs := observer.New(zap.WarnLevel)
			bot, err := New(ctx, cache, zap.New(core).Sugar(), ttl, sessionKey, b, scoring.Options{})
			require.NoError(t, err)
			assert.Equal(t, 10.0, bot.WhitePointCount())
			assert.Equal(t, 1, logs.FilterMessage("scoring snapshot is unusable, rebuilding").Len())

			stored, err := cache.Get(ctx, sessionKey)
			require.NoError(t, err)
			_, err = unseal(stored)
			assert.NoError(t, err)

			require.NoError(t, cache.Set(ctx, sessionKey, tc.data, ttl))
			_, err = New(ctx, cache, zap.New(core).Sugar(), ttl, sessionKey, nil, scoring.Options{})
			assert.ErrorIs(t, err, errs.ErrSnapshotNotFound)
		})
	}
}

func TestFinalize(t *testing.T) {
	ctx := context.Background()
	cache := repo.NewSnapshotMapStorage()
	results := repo.NewResultMapStorage()
	uc := NewScoringUseCase(cache, results, zaptest.NewLogger(t).Sugar(), ttl, 6.5)

	komi := 0.5
	req := score.ScoringRequest{Komi: &komi, WhiteCaptures: 2}
	opts := uc.Options(req)
	assert.Equal(t, 0.5, opts.Komi)
	assert.Equal(t, 6.5, uc.Options(score.ScoringRequest{}).Komi)

	bot, changed, err := uc.Mark(ctx, sessionKey, mustParse(t, linked5), opts, 3, score.StatusDead)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 12.5, bot.WhitePointCount())

	res, err := uc.Finalize(ctx, sessionKey)
	require.NoError(t, err)
	assert.Equal(t, board.White, res.Winner)
	assert.Equal(t, 7.5, res.Margin)
	assert.Equal(t, 5.0, res.BlackPoints)
	assert.Equal(t, 0.5, res.Komi)
	assert.Equal(t, 5, res.BoardSize)
	assert.Equal(t, []int{3}, res.DeadStones)
	assert.Contains(t, res.SGF, "RE[W+7.5]")
	assert.Contains(t, res.SGF, "TB[aa][ba][da][ea]")

	ok, err := cache.Exists(ctx, sessionKey)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = uc.Open(ctx, sessionKey, mustParse(t, linked5), opts)
	assert.ErrorIs(t, err, errs.ErrSessionFinalized)

	archived, err := uc.Result(ctx, sessionKey)
	require.NoError(t, err)
	assert.Equal(t, res.WhitePoints, archived.WhitePoints)

	_, err = uc.Result(ctx, "missing")
	assert.ErrorIs(t, err, errs.ErrSnapshotNotFound)
}
