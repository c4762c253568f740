package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	router "github.com/edulive/classroom/internal/adapters/http"
	gormpersistence "github.com/edulive/classroom/internal/adapters/persistence/gorm"
	ws "github.com/edulive/classroom/internal/adapters/signal"
	redisstate "github.com/edulive/classroom/internal/adapters/state/redis"
	"github.com/edulive/classroom/internal/app"
	"github.com/edulive/classroom/internal/config"
	"github.com/edulive/classroom/internal/tasks"
	"github.com/edulive/classroom/internal/worker"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := gorm.Open(mysql.Open(cfg.MySQLDSN), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect mysql")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get sql.DB")
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("failed to connect redis")
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer asynqClient.Close()

	snapshots := gormpersistence.NewSnapshotRepository(db)
	courses := gormpersistence.NewCourseRepository(db)
	presence := redisstate.NewPresence(rdb, "collab:")
	queue := tasks.NewQueue(asynqClient)

	reg := app.NewRegistry()
	gate := app.NewAccessGate(courses)
	connRouter := ws.NewConnRouter()
	conf := app.NewConferenceManager(reg, gate, connRouter)
	board := app.NewWhiteboardManager(reg, gate, connRouter, queue)
	collab := ws.NewCollabController(gate, conf, board, connRouter, presence)

	bg := worker.NewServer(cfg.RedisAddr, snapshots)
	if err := bg.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start worker")
	}

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Collab:    collab,
		Registry:  reg,
		Gate:      gate,
		Snapshots: snapshots,
		Presence:  presence,
		Redis:     rdb,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("classroom collab server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	bg.Shutdown()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
