package game

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"goscore/internal/domain/game"
	"goscore/internal/httpresponse"
	gameuc "goscore/internal/usecase/game"
	"goscore/internal/utils"
)

type MovesHandler struct {
	log     *zap.SugaredLogger
	movesUC *gameuc.MovesUseCase
}

func NewMovesHandler(log *zap.SugaredLogger, movesUC *gameuc.MovesUseCase) *MovesHandler {
	return &MovesHandler{
		log:     log,
		movesUC: movesUC,
	}
}

func (h *MovesHandler) Register(r chi.Router) {
	r.Post("/moves/play", h.HandlePlayMove)
	r.Post("/moves/invalid", h.HandleInvalidMoves)
}

func (h *MovesHandler) HandlePlayMove(w http.ResponseWriter, r *http.Request) {
	var req game.PlayMoveRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		h.log.Warnw("play move: bad request", "error", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}

	resp, err := h.movesUC.PlayMove(req)
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, resp)
}

func (h *MovesHandler) HandleInvalidMoves(w http.ResponseWriter, r *http.Request) {
	var req game.InvalidMovesRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		h.log.Warnw("invalid moves: bad request", "error", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}

	resp, err := h.movesUC.InvalidMoves(req)
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, resp)
}
