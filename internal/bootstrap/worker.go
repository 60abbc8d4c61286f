package bootstrap

import (
	"context"
	"os"
	"sync"

	"mailagent/adapter/in/worker"
	"mailagent/config"
	"mailagent/pkg/logger"

	"github.com/rs/zerolog"
)

// Worker owns the job pool plus the daily digest scheduler.
type Worker struct {
	pool      *worker.Pool
	scheduler *worker.DigestScheduler
	deps      *Dependencies
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	zlog      zerolog.Logger
}

func NewWorker(cfg *config.Config, deps *Dependencies) *Worker {
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		With().Timestamp().Str("component", "worker").Str("worker_id", cfg.WorkerID).Logger()

	handler := worker.NewHandler(
		deps.ClassificationService,
		deps.StateTracker,
		deps.DigestService,
		deps.Notifier,
	)

	poolConfig := worker.DefaultPoolConfig()
	if cfg.WorkerCount > 0 {
		poolConfig.Workers = cfg.WorkerCount
	}
	if cfg.WorkerQueueSize > 0 {
		poolConfig.QueueSize = cfg.WorkerQueueSize
	}

	pool := worker.NewPool(handler, poolConfig, zlog)

	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		pool:   pool,
		deps:   deps,
		ctx:    ctx,
		cancel: cancel,
		zlog:   zlog,
	}

	if cfg.SchedulerEnabled {
		w.scheduler = worker.NewDigestScheduler(pool, cfg.DigestTime)
	}

	return w
}

// Start runs the pool and scheduler and blocks until Stop is called.
func (w *Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.pool.Start()
	}()

	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			logger.Error("Digest scheduler failed to start: %v", err)
		} else {
			w.zlog.Info().Msg("digest scheduler started")
		}
	}

	<-w.ctx.Done()
}

func (w *Worker) Stop() {
	w.cancel()
	if w.scheduler != nil {
		w.scheduler.Stop()
	}
	w.pool.Stop()
	w.wg.Wait()
}

func (w *Worker) Submit(msg *worker.Message) bool {
	return w.pool.Submit(msg)
}

func (w *Worker) GetMetrics() worker.PoolMetrics {
	return w.pool.GetMetrics()
}

func (w *Worker) Dependencies() *Dependencies {
	return w.deps
}
