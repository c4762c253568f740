// Package worker runs the background asynq server that absorbs the
// blocking I/O the command path is not allowed to do.
package worker

import (
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/tasks"
)

type Server struct {
	srv *asynq.Server
	mux *asynq.ServeMux
}

func NewServer(redisAddr string, store core.SnapshotStore) *Server {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 4,
			Queues:      map[string]int{"default": 1},
		},
	)
	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypeSnapshotPersist, NewSnapshotPersistHandler(store))
	return &Server{srv: srv, mux: mux}
}

// Start runs the server in the background.
func (s *Server) Start() error {
	log.Info().Str("module", "worker").Msg("worker started")
	return s.srv.Start(s.mux)
}

func (s *Server) Shutdown() {
	s.srv.Shutdown()
	log.Info().Str("module", "worker").Msg("worker stopped")
}
