// Package audit keeps a trail of ledger transitions.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Event kinds
const (
	DepositCreated     = "deposit.created"
	DepositDecided     = "deposit.decided"
	WithdrawalCreated  = "withdrawal.created"
	WithdrawalDecided  = "withdrawal.decided"
	ProfitCredited     = "profit.credited"
	UserBlocked        = "user.blocked"
	UserDeleted        = "user.deleted"
	PackageSwitched    = "package.switched"
	AdminRegistered    = "admin.registered"
	PasswordResetIssue = "password.reset_issued"
)

// Event is one recorded transition
type Event struct {
	Kind     string    `bson:"kind" json:"kind"`
	UserID   uint      `bson:"user_id" json:"userId"`
	EntityID uint      `bson:"entity_id,omitempty" json:"entityId,omitempty"`
	Amount   string    `bson:"amount,omitempty" json:"amount,omitempty"`
	Status   string    `bson:"status,omitempty" json:"status,omitempty"`
	ActorID  uint      `bson:"actor_id,omitempty" json:"actorId,omitempty"`
	At       time.Time `bson:"at" json:"at"`
}

// Recorder persists events. Record never fails the caller; problems are logged.
type Recorder interface {
	Record(ctx context.Context, e Event)
	// Recent returns the newest events first, optionally for one user.
	Recent(ctx context.Context, userID *uint, limit int64) ([]Event, error)
}

// LogRecorder logs events and keeps the most recent ones in memory
type LogRecorder struct {
	mu     sync.Mutex
	events []Event
	max    int
}

// NewLogRecorder keeps at most max events in memory
func NewLogRecorder(max int) *LogRecorder {
	return &LogRecorder{max: max}
}

func (r *LogRecorder) Record(_ context.Context, e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	logrus.WithFields(logrus.Fields{
		"kind":      e.Kind,
		"user_id":   e.UserID,
		"entity_id": e.EntityID,
		"amount":    e.Amount,
		"status":    e.Status,
		"actor_id":  e.ActorID,
	}).Info("Audit event")

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	if r.max > 0 && len(r.events) > r.max {
		r.events = r.events[len(r.events)-r.max:]
	}
}

func (r *LogRecorder) Recent(_ context.Context, userID *uint, limit int64) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Event{}
	for i := len(r.events) - 1; i >= 0; i-- {
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
		if userID != nil && r.events[i].UserID != *userID {
			continue
		}
		out = append(out, r.events[i])
	}
	return out, nil
}
