package scoring

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"goscore/internal/domain/board"
	"goscore/internal/domain/score"
	errs "goscore/internal/errors"
	"goscore/internal/httpresponse"
	"goscore/internal/usecase/scorebot"
	"goscore/internal/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Update is pushed to websocket subscribers after every change.
type Update struct {
	SessionKey string        `json:"session_key"`
	Finalized  bool          `json:"finalized,omitempty"`
	Summary    score.Summary `json:"summary"`
}

type ScoringHandler struct {
	log          *zap.SugaredLogger
	scoringUC    *scorebot.ScoringUseCase
	hub          *Hub
	maxBoardSize int
}

func NewScoringHandler(log *zap.SugaredLogger, scoringUC *scorebot.ScoringUseCase, hub *Hub, maxBoardSize int) *ScoringHandler {
	return &ScoringHandler{
		log:          log,
		scoringUC:    scoringUC,
		hub:          hub,
		maxBoardSize: maxBoardSize,
	}
}

func (h *ScoringHandler) Register(r chi.Router) {
	r.Route("/scoring", func(r chi.Router) {
		r.Post("/", h.HandleStart)
		r.Post("/{key}/mark", h.HandleMark)
		r.Post("/{key}/finalize", h.HandleFinalize)
		r.Get("/{key}/result", h.HandleResult)
		r.Get("/{key}/ws", h.HandleSubscribe)
	})
}

// boardFrom builds the request board, nil when the request carries no tiles.
func (h *ScoringHandler) boardFrom(req score.ScoringRequest) (*board.Board, error) {
	if len(req.Tiles) == 0 && req.BoardSize == 0 {
		return nil, nil
	}
	if h.maxBoardSize > 0 && req.BoardSize > h.maxBoardSize {
		return nil, fmt.Errorf("%w: size %d exceeds %d", errs.ErrBoardSizeMismatch, req.BoardSize, h.maxBoardSize)
	}
	return board.New(req.BoardSize, req.Tiles)
}

func (h *ScoringHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req score.ScoringRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}
	b, err := h.boardFrom(req)
	if err == nil && b == nil {
		err = fmt.Errorf("%w: no tiles", errs.ErrBoardSizeMismatch)
	}
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}

	key := req.SessionKey
	if key == "" {
		key = uuid.New().String()
	}

	bot, err := h.scoringUC.Open(r.Context(), key, b, h.scoringUC.Options(req))
	if err != nil {
		h.log.Errorw("open scoring session", "key", key, "error", err)
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, score.ScoringResponse{SessionKey: key, Summary: bot.Summary()})
}

func (h *ScoringHandler) HandleMark(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req score.MarkRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}
	status, err := score.ParseMarkStatus(req.Status)
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	b, err := h.boardFrom(req.ScoringRequest)
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}

	bot, changed, err := h.scoringUC.Mark(r.Context(), key, b, h.scoringUC.Options(req.ScoringRequest), req.Position, status)
	if err != nil {
		h.log.Warnw("mark failed", "key", key, "position", req.Position, "error", err)
		httpresponse.WriteError(w, err)
		return
	}

	summary := bot.Summary()
	if changed {
		h.hub.Broadcast(key, Update{SessionKey: key, Summary: summary})
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, score.MarkResponse{Changed: changed, Summary: summary})
}

func (h *ScoringHandler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	res, err := h.scoringUC.Finalize(r.Context(), key)
	if err != nil {
		h.log.Warnw("finalize failed", "key", key, "error", err)
		httpresponse.WriteError(w, err)
		return
	}

	h.hub.Broadcast(key, Update{
		SessionKey: key,
		Finalized:  true,
		Summary: score.Summary{
			BlackPoints:    res.BlackPoints,
			WhitePoints:    res.WhitePoints,
			BlackTerritory: res.BlackTerritory,
			WhiteTerritory: res.WhiteTerritory,
			DeadStones:     res.DeadStones,
		},
	})
	h.hub.Close(key)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, res)
}

func (h *ScoringHandler) HandleResult(w http.ResponseWriter, r *http.Request) {
	res, err := h.scoringUC.Result(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, res)
}

// HandleSubscribe streams updates of an existing session over a websocket. The first
// message carries the current summary.
func (h *ScoringHandler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	bot, err := h.scoringUC.Open(r.Context(), key, nil, h.scoringUC.Options(score.ScoringRequest{}))
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("upgrade error", "key", key, "error", err)
		return
	}
	defer func() {
		h.hub.Unsubscribe(key, conn)
		_ = conn.Close()
	}()

	if err = h.hub.Subscribe(key, conn, Update{SessionKey: key, Summary: bot.Summary()}); err != nil {
		h.log.Warnw("subscribe failed", "key", key, "error", err)
		return
	}

	// clients only listen; reading detects the disconnect
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
