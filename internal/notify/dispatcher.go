package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Errors returned by Dispatcher.Enqueue.
var (
	ErrQueueClosed = errors.New("notification queue is closed")
	ErrQueueFull   = errors.New("notification queue is full")
)

// DispatcherConfig sizes the queue and the worker pool.
type DispatcherConfig struct {
	// QueueSize is the channel buffer; a full queue drops new messages.
	QueueSize int
	// WorkerCount is the number of concurrent senders. Defaults to 1.
	WorkerCount int
	// SendTimeout bounds one delivery. Zero means 30 seconds.
	SendTimeout time.Duration
}

// DefaultDispatcherConfig returns the configuration used when none is given.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{QueueSize: 100, WorkerCount: 2, SendTimeout: 30 * time.Second}
}

// Dispatcher queues messages and delivers them from a pool of workers.
type Dispatcher struct {
	sender  Sender
	queue   chan Message
	config  DispatcherConfig
	logger  *slog.Logger
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.RWMutex
	closed  bool
	started bool
}

// NewDispatcher creates a stopped Dispatcher. Call Start to run the workers.
func NewDispatcher(sender Sender, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "notify_dispatcher"))

	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultDispatcherConfig().QueueSize
	}
	if cfg.WorkerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			slog.Int("specified_count", cfg.WorkerCount),
			slog.Int("default_count", 1))
		cfg.WorkerCount = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultDispatcherConfig().SendTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		sender: sender,
		queue:  make(chan Message, cfg.QueueSize),
		config: cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the workers. Calling it more than once has no effect.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	for i := 0; i < d.config.WorkerCount; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	d.logger.Info("notification workers started",
		slog.Int("worker_count", d.config.WorkerCount),
		slog.Int("queue_size", d.config.QueueSize))
}

// Enqueue adds msg to the queue without blocking.
func (d *Dispatcher) Enqueue(msg Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}

	select {
	case d.queue <- msg:
		return nil
	default:
		return fmt.Errorf("%w: capacity %d reached", ErrQueueFull, cap(d.queue))
	}
}

// Stop closes the queue and waits for the workers to drain it. If ctx ends
// first, in-flight sends are cancelled and ctx.Err is returned.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		d.logger.Info("notification workers stopped")
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		d.logger.Warn("notification workers stopped before the queue drained")
		return ctx.Err()
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	log := d.logger.With(slog.Int("worker_id", id))

	for msg := range d.queue {
		if d.ctx.Err() != nil {
			log.Warn("dropping notification after shutdown", slog.String("to", msg.To))
			continue
		}
		d.deliver(log, msg)
	}
}

func (d *Dispatcher) deliver(log *slog.Logger, msg Message) {
	ctx, cancel := context.WithTimeout(d.ctx, d.config.SendTimeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			log.Error("notification sender panicked", slog.Any("panic", p), slog.String("to", msg.To))
		}
	}()

	if err := d.sender.Send(ctx, msg); err != nil {
		log.Error("failed to deliver notification",
			slog.String("error", err.Error()),
			slog.String("to", msg.To),
			slog.String("subject", msg.Subject))
		return
	}
	log.Debug("notification delivered", slog.String("to", msg.To))
}
