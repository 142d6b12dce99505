package notary

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/karlsjo/sustainlog/internal/model"
	"github.com/karlsjo/sustainlog/internal/repository"
)

const (
	drainBatch     = 32
	perCallRetries = 2
	maxBackoffStep = 6 // caps the queue-level delay at interval<<6
)

// Notarizer is implemented by Client; narrowed for tests.
type Notarizer interface {
	Notarize(ctx context.Context, fp string, createdAt time.Time) (model.NotarizationReceipt, error)
}

// Worker drains the notarization queue in the background. A notarization
// failure never touches the stored action: the task is rescheduled with
// backoff until the attempt cap, then retired as failed.
type Worker struct {
	queue       repository.NotaryQueue
	client      Notarizer
	log         *zap.Logger
	interval    time.Duration
	maxAttempts int
	nudgeCh     chan struct{}
}

// NewWorker constructs a Worker polling every interval and giving up on a
// task after maxAttempts failed rounds.
func NewWorker(queue repository.NotaryQueue, client Notarizer, interval time.Duration, maxAttempts int, log *zap.Logger) *Worker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Worker{
		queue:       queue,
		client:      client,
		log:         log,
		interval:    interval,
		maxAttempts: maxAttempts,
		nudgeCh:     make(chan struct{}, 1),
	}
}

// Nudge wakes the worker without waiting for the next poll. Never blocks.
func (w *Worker) Nudge() {
	select {
	case w.nudgeCh <- struct{}{}:
	default:
	}
}

// Run drains due tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		case <-w.nudgeCh:
		}
		w.Drain(ctx)
	}
}

// Drain processes one batch of due tasks.
func (w *Worker) Drain(ctx context.Context) {
	tasks, err := w.queue.Due(ctx, time.Now(), drainBatch)
	if err != nil {
		w.log.Error("notary queue read failed", zap.Error(err))
		return
	}
	for _, task := range tasks {
		if ctx.Err() != nil {
			return
		}
		w.process(ctx, task)
	}
}

func (w *Worker) process(ctx context.Context, task model.NotarizationTask) {
	var rcpt model.NotarizationReceipt
	backoff := retry.WithMaxRetries(perCallRetries, retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := w.client.Notarize(ctx, task.Fingerprint, task.CreatedAt)
		if err != nil {
			return retry.RetryableError(err)
		}
		rcpt = r
		return nil
	})
	if err == nil {
		if err := w.queue.MarkNotarized(ctx, task.Fingerprint, rcpt.TxHash); err != nil {
			w.log.Error("mark notarized failed", zap.String("fingerprint", task.Fingerprint), zap.Error(err))
			return
		}
		w.log.Info("fingerprint anchored",
			zap.String("fingerprint", rcpt.Fingerprint),
			zap.String("txHash", rcpt.TxHash),
		)
		return
	}

	next := time.Now().Add(w.delayAfter(task.Attempts))
	attempts, rErr := w.queue.Reschedule(ctx, task.Fingerprint, next)
	if rErr != nil {
		w.log.Error("reschedule failed", zap.String("fingerprint", task.Fingerprint), zap.Error(rErr))
		return
	}
	if attempts >= w.maxAttempts {
		if fErr := w.queue.MarkFailed(ctx, task.Fingerprint); fErr != nil {
			w.log.Error("mark failed failed", zap.String("fingerprint", task.Fingerprint), zap.Error(fErr))
			return
		}
		w.log.Error("notarization abandoned; record stays readable",
			zap.String("fingerprint", task.Fingerprint),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return
	}
	w.log.Warn("notarization failed, will retry",
		zap.String("fingerprint", task.Fingerprint),
		zap.Int("attempts", attempts),
		zap.Time("next", next),
		zap.Error(err),
	)
}

// delayAfter doubles the poll interval per completed attempt, capped.
func (w *Worker) delayAfter(attempts int) time.Duration {
	if attempts > maxBackoffStep {
		attempts = maxBackoffStep
	}
	return w.interval << uint(attempts)
}
