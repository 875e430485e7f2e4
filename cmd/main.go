package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"goscore/internal/adapters"
	"goscore/internal/bootstrap"
	gameDelivery "goscore/internal/delivery/game"
	scoringDelivery "goscore/internal/delivery/scoring"
	ownMiddleware "goscore/internal/middleware"
	repo "goscore/internal/repository"
	gameuc "goscore/internal/usecase/game"
	"goscore/internal/usecase/scorebot"
)

type mainDeliveryHandler struct {
	moves   *gameDelivery.MovesHandler
	scoring *scoringDelivery.ScoringHandler
}

type dataBaseAdapters struct {
	redisAdapter *adapters.AdapterRedis
	mongoAdapter *adapters.AdapterMongo
}

type storages struct {
	snapshots scorebot.SnapshotCache
	results   scorebot.ResultStore
}

func main() {
	logger := NewLogger()
	defer func() { _ = logger.Sync() }()

	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Errorw("Failed to setup configuration", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store storages
	if cfg.UseMemoryStorage {
		logger.Warn("using in-memory storage, sessions are lost on restart")
		store = storages{snapshots: repo.NewSnapshotMapStorage(), results: repo.NewResultMapStorage()}
	} else {
		databaseAdapters := initDatabaseAdapters(ctx, logger, cfg)
		defer databaseAdapters.mongoAdapter.Close(context.Background())
		defer databaseAdapters.redisAdapter.Close(context.Background())
		store = storages{
			snapshots: repo.NewRedisSnapshotStorage(databaseAdapters.redisAdapter.GetClient(), logger),
			results:   repo.NewResultMongoStorage(logger, databaseAdapters.mongoAdapter.Database),
		}
	}

	r := chi.NewRouter()
	handlers := initializeDeliveryHandlers(*cfg, logger, store)
	handlers.Router(r, cfg.IsLocalCors)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go handleShutdown(ctx, cancel, srv, logger)

	logger.Infof("Server is running on port %s", cfg.ServerPort)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalw("Failed to start server", "error", err)
	}
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

func (h *mainDeliveryHandler) Router(r *chi.Mux, isLocalCors bool) {
	if isLocalCors {
		r.Use(ownMiddleware.CORS)
	}
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h.moves.Register(r)
	h.scoring.Register(r)
}

func initDatabaseAdapters(ctx context.Context, log *zap.SugaredLogger, cfg *bootstrap.Config) *dataBaseAdapters {
	mongoAdapter := adapters.NewAdapterMongo(cfg, log)
	if err := mongoAdapter.Init(ctx); err != nil {
		log.Fatalw("Failed to initialize MongoDB", "error", err)
	}

	redisAdapter := adapters.NewAdapterRedis(cfg, log)
	if err := redisAdapter.Init(ctx); err != nil {
		log.Fatalw("Failed to initialize Redis", "error", err)
	}

	log.Info("Database adapters initialized")
	return &dataBaseAdapters{
		redisAdapter: redisAdapter,
		mongoAdapter: mongoAdapter,
	}
}

func initializeDeliveryHandlers(cfg bootstrap.Config, log *zap.SugaredLogger, store storages) *mainDeliveryHandler {
	movesUC := gameuc.NewMovesUseCase(log, cfg.MaxBoardSize)
	scoringUC := scorebot.NewScoringUseCase(store.snapshots, store.results, log, cfg.SnapshotTTL(), cfg.DefaultKomi)

	return &mainDeliveryHandler{
		moves:   gameDelivery.NewMovesHandler(log, movesUC),
		scoring: scoringDelivery.NewScoringHandler(log, scoringUC, scoringDelivery.NewHub(log), cfg.MaxBoardSize),
	}
}

func handleShutdown(ctx context.Context, cancelFunc context.CancelFunc, srv *http.Server, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigs:
		log.Info("Received shutdown signal")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Server shutdown failed", "error", err)
	}
	cancelFunc()
}
