package ledger

import (
	"context" // Request scoped cancellation
	"fmt"     // Cache key formatting
	"strings" // Input trimming

	"invest_tracker/internal/audit"  // Ledger event trail
	"invest_tracker/internal/domain" // Domain models
	"invest_tracker/internal/notify" // Notification mail
	"invest_tracker/internal/store"  // Persistence

	"github.com/sirupsen/logrus" // Structured logging
)

// MaxPageSize bounds admin listings
const MaxPageSize = 100

// UserPage is one page of the admin user listing
type UserPage struct {
	Users    []domain.User `json:"users"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
}

// NormalizePage clamps a requested page into the allowed range
func NormalizePage(number, size int) store.Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = 20
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return store.Page{Number: number, Size: size}
}

// ListUsers returns one page of accounts, oldest first
func (s *Service) ListUsers(ctx context.Context, page store.Page) (UserPage, error) {
	key := fmt.Sprintf("%spage:%d:size:%d", prefixAdminUsers, page.Number, page.Size)
	return cached(ctx, s.rdb, key, usersTTL, func() (UserPage, error) {
		users, total, err := s.store.ListUsers(ctx, page)
		if err != nil {
			return UserPage{}, err
		}
		if users == nil {
			users = []domain.User{}
		}
		return UserPage{Users: users, Total: total, Page: page.Number, PageSize: page.Size}, nil
	})
}

// SetBlocked blocks or unblocks userID on behalf of actorID
func (s *Service) SetBlocked(ctx context.Context, actorID, userID uint, block bool) (*domain.User, error) {
	if userID == 0 {
		return nil, invalid("userId is required")
	}
	if block && actorID == userID {
		return nil, invalid("You cannot block your own account")
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.IsBlocked = block
	if err := s.store.SaveUser(ctx, u, store.ColBlocked); err != nil {
		return nil, err
	}
	status := "unblocked"
	if block {
		status = "blocked"
	}
	logrus.WithFields(logrus.Fields{"user_id": userID, "actor_id": actorID, "status": status}).Info("User block state changed")
	s.audit.Record(ctx, audit.Event{Kind: audit.UserBlocked, UserID: userID, Status: status, ActorID: actorID, At: s.now().UTC()})
	s.invalidateUsers(ctx)
	return u, nil
}

// DeleteUser removes userID and every ledger entry it owns
func (s *Service) DeleteUser(ctx context.Context, actorID, userID uint) error {
	if actorID == userID {
		return invalid("You cannot delete your own account")
	}
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"user_id": userID, "actor_id": actorID}).Info("User deleted")
	s.audit.Record(ctx, audit.Event{Kind: audit.UserDeleted, UserID: userID, ActorID: actorID, At: s.now().UTC()})
	s.invalidateLedger(ctx, userID)
	return nil
}

// SendMail mails an admin written message to the account with email
func (s *Service) SendMail(ctx context.Context, email, subject, message string) error {
	email = normalizeEmail(email)
	subject = strings.TrimSpace(subject)
	if email == "" || subject == "" || strings.TrimSpace(message) == "" {
		return invalid("Email, subject and message are required")
	}
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	s.mail.Notify(ctx, notify.Custom(u.Email, subject, message))
	return nil
}
