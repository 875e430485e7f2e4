package game

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"goscore/internal/domain/board"
	"goscore/internal/domain/game"
	gameuc "goscore/internal/usecase/game"
)

func serve(t *testing.T, path string, body any) (*httptest.ResponseRecorder, json.RawMessage) {
	t.Helper()
	log := zaptest.NewLogger(t).Sugar()
	r := chi.NewRouter()
	NewMovesHandler(log, gameuc.NewMovesUseCase(log, 19)).Register(r)

	data, err := json.Marshal(body)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data)))

	var envelope struct {
		Status int
		Body   json.RawMessage
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, rec.Code, envelope.Status)
	return rec, envelope.Body
}

func TestHandlePlayMove(t *testing.T) {
	b, err := board.Parse("|_|b|_|,|b|w|b|,|_|_|_|")
	require.NoError(t, err)

	rec, body := serve(t, "/moves/play", game.PlayMoveRequest{
		Position: game.Position{BoardSize: b.Size, Tiles: b.Tiles},
		Move:     game.Move{Color: board.Black, Position: 7},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp game.PlayMoveResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, []int{4}, resp.Captured)
	assert.Equal(t, board.Empty, resp.Tiles[4])
	assert.Nil(t, resp.Ko)

	rec, _ = serve(t, "/moves/play", game.PlayMoveRequest{
		Position: game.Position{BoardSize: b.Size, Tiles: b.Tiles},
		Move:     game.Move{Color: board.White, Position: 1},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleInvalidMoves(t *testing.T) {
	b, err := board.Parse("|_|w|b|_|,|w|_|b|b|,|w|_|_|b|,|_|w|b|_|")
	require.NoError(t, err)

	rec, body := serve(t, "/moves/invalid", game.InvalidMovesRequest{
		Position: game.Position{BoardSize: b.Size, Tiles: b.Tiles},
		Color:    board.Black,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp game.InvalidMovesResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, []int{0, 12}, resp.InvalidMoves)
}
