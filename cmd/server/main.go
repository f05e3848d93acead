package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/edubot-ec/edubot/internal/academic"
	"github.com/edubot-ec/edubot/internal/advisor"
	"github.com/edubot-ec/edubot/internal/ai"
	"github.com/edubot-ec/edubot/internal/chat"
	"github.com/edubot-ec/edubot/internal/guides"
	"github.com/edubot-ec/edubot/internal/platform/cache"
	"github.com/edubot-ec/edubot/internal/platform/config"
	"github.com/edubot-ec/edubot/internal/platform/database"
	"github.com/edubot-ec/edubot/internal/report"
)

// app holds the wired dependencies the HTTP layer serves. Optional pieces
// (database, cache) stay nil when not configured.
type app struct {
	cfg     *config.Config
	engine  *advisor.Engine
	source  academic.Source
	gateway *chat.Gateway
	ws      *chat.WebSocketChannel
	db      *database.DB
	cache   *cache.Cache
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to wire application", "error", err)
		os.Exit(1)
	}
	defer a.close()

	if err := a.gateway.StartAll(ctx, a.dispatch(ctx)); err != nil {
		slog.Error("failed to start chat channels", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      newMux(a),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	a.gateway.StopAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// buildApp connects every subsystem: records client, cache, database,
// AI providers, study guides, the advising engine, and the chat gateway.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	var source academic.Source = academic.NewClient(cfg.Academic.BaseURL)

	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			return nil, fmt.Errorf("connecting cache: %w", err)
		}
		a.cache = c
		ttl := time.Duration(cfg.Academic.CacheTTLSec) * time.Second
		source = academic.NewCachedSource(source, c.Client, ttl)
		slog.Info("academic record cache enabled", "ttl", ttl)
	}
	a.source = source

	store := advisor.SessionStore(nil)
	events := advisor.EventLogger(nil)
	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, fmt.Errorf("connecting database: %w", err)
		}
		a.db = db

		store, err = advisor.NewPostgresStore(db.Pool)
		if err != nil {
			return nil, fmt.Errorf("creating session store: %w", err)
		}
		events = advisor.NewPostgresEventLogger(db.Pool)
		slog.Info("persistent sessions enabled")
	} else {
		slog.Warn("no database configured, sessions are in-memory only")
	}

	router := ai.NewRouter()
	if cfg.AI.OpenAI.APIKey != "" {
		openai := ai.NewOpenAIProvider(cfg.AI.OpenAI.APIKey)
		router.Register("openai", openai)
		router.RegisterTranscriber(openai)
		slog.Info("AI provider registered", "provider", "openai")
	}
	if cfg.AI.DeepSeek.APIKey != "" {
		router.Register("deepseek", ai.NewDeepSeekProvider(cfg.AI.DeepSeek.APIKey))
		slog.Info("AI provider registered", "provider", "deepseek")
	}
	if cfg.AI.Google.APIKey != "" {
		router.Register("gemini", ai.NewGoogleProvider(cfg.AI.Google.APIKey))
		slog.Info("AI provider registered", "provider", "gemini")
	}
	if !router.HasProvider() {
		slog.Warn("no AI provider configured, small talk uses fixed replies")
	}

	var library *guides.Library
	if lib, err := guides.NewLibrary(cfg.GuidesPath); err != nil {
		slog.Warn("study guides unavailable", "path", cfg.GuidesPath, "error", err)
	} else {
		library = lib
	}

	a.engine = advisor.NewEngine(advisor.EngineConfig{
		Source:    source,
		AIRouter:  router,
		Responder: advisor.NewResponder(library),
		Store:     store,
		Events:    events,
		Budget:    ai.NewInMemoryBudget(cfg.AI.DailyTokens),
	})

	a.ws = chat.NewWebSocketChannel(cfg.Chat.AllowedOrigins)
	a.gateway = chat.NewGateway()
	a.gateway.Register("websocket", a.ws)

	return a, nil
}

func (a *app) close() {
	if a.cache != nil {
		a.cache.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// dispatch turns inbound chat messages into engine calls. Each message runs
// in its own goroutine so a slow AI call never blocks the channel read loop.
func (a *app) dispatch(ctx context.Context) func(chat.InboundMessage) {
	return func(msg chat.InboundMessage) {
		go func() {
			sess, err := a.engine.Store().GetOrCreate(msg.UserID)
			if err != nil {
				slog.Error("session lookup failed", "user_id", msg.UserID, "error", err)
				return
			}

			if err := a.gateway.SendTyping(ctx, msg.Channel, msg.UserID); err != nil {
				slog.Debug("typing indicator failed", "user_id", msg.UserID, "error", err)
			}

			tokens := academic.NewRefreshingTokenSource(a.cfg.Academic.BaseURL, msg.AccessToken, msg.RefreshToken)

			var reply string
			switch msg.Kind {
			case chat.KindAudio:
				reply, err = a.engine.HandleAudio(ctx, sess, msg.Audio, msg.AudioFilename, tokens)
			case chat.KindImage:
				reply, err = a.engine.HandleImage(ctx, sess, msg.Image, msg.ImageMIME, msg.Caption)
			default:
				reply, err = a.engine.HandleMessage(ctx, sess, msg.Text, tokens)
			}
			if err != nil {
				slog.Error("message handling failed", "user_id", msg.UserID, "error", err)
				return
			}

			err = a.gateway.Send(ctx, chat.OutboundMessage{
				Channel: msg.Channel,
				UserID:  msg.UserID,
				Text:    reply,
			})
			if err != nil {
				slog.Error("reply delivery failed", "user_id", msg.UserID, "error", err)
			}
		}()
	}
}

// newMux creates the HTTP router: health probes, the chat WebSocket, and
// the grade report download.
func newMux(a *app) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", a.handleReadyz)
	if a.ws != nil {
		mux.Handle("GET /ws/chat", a.ws)
	}
	mux.HandleFunc("GET /api/report", a.handleReport)
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (a *app) handleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if a.db != nil {
		if err := a.db.HealthCheck(r.Context()); err != nil {
			slog.Warn("readiness check failed", "dependency", "database", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"database unavailable"}`))
			return
		}
	}
	if a.cache != nil {
		if err := a.cache.HealthCheck(r.Context()); err != nil {
			slog.Warn("readiness check failed", "dependency", "cache", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"cache unavailable"}`))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// handleReport streams the student's grades as an XLSX workbook. The access
// token comes from the Authorization header; the records API decides whether
// it is still valid.
func (a *app) handleReport(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" || token == r.Header.Get("Authorization") {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}

	enrollments, err := a.source.Enrollments(r.Context(), token)
	if err != nil {
		slog.Error("report fetch failed", "error", err)
		http.Error(w, "could not fetch enrollments", http.StatusBadGateway)
		return
	}

	studentID := r.URL.Query().Get("student")
	if studentID == "" {
		studentID = "actual"
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="calificaciones.xlsx"`)
	if err := report.WriteGrades(w, studentID, enrollments); err != nil {
		slog.Error("report rendering failed", "error", err)
	}
}
