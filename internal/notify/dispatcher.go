package notify

import (
	"context" // Detached delivery context
	"sync"    // Worker lifecycle
	"time"    // Per-message timeout

	"invest_tracker/internal/metrics" // Delivery counters

	"github.com/sirupsen/logrus" // Structured logging
)

// Dispatcher delivers messages on background workers so requests never wait
// on mail. Messages that do not fit in the buffer are dropped and logged.
type Dispatcher struct {
	sender  Sender
	jobs    chan Message
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	timeout time.Duration
}

// NewDispatcher starts workers goroutines reading from a buffer of size buffer
func NewDispatcher(sender Sender, workers, buffer int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	d := &Dispatcher{
		sender:  sender,
		jobs:    make(chan Message, buffer),
		timeout: 30 * time.Second,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for msg := range d.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := d.sender.Send(ctx, msg)
		cancel()
		if err != nil {
			metrics.RecordNotification("failed")
			logrus.WithFields(logrus.Fields{
				"to":      msg.To,
				"subject": msg.Subject,
				"error":   err.Error(),
			}).Error("Failed to send mail")
			continue
		}
		metrics.RecordNotification("sent")
	}
}

// Notify queues msg for delivery. It never blocks.
func (d *Dispatcher) Notify(_ context.Context, msg Message) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.RecordNotification("dropped")
		logrus.WithField("subject", msg.Subject).Warn("Mail dropped after shutdown")
		return
	}
	select {
	case d.jobs <- msg:
	default:
		metrics.RecordNotification("dropped")
		logrus.WithFields(logrus.Fields{"to": msg.To, "subject": msg.Subject}).Warn("Mail buffer full, message dropped")
	}
}

// Close stops accepting messages and waits for queued ones to be sent
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.jobs)
		d.mu.Unlock()
	})
	d.wg.Wait()
}
