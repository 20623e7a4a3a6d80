// Package ledger implements the investor and admin operations on top of a
// store.Store: account lifecycle, the package catalog, the deposit, withdrawal
// and profit ledgers, and the dashboard figures derived from them.
package ledger

import (
	"context" // Request scoped cancellation
	"errors"  // Sentinel errors
	"strconv" // Cache key formatting
	"time"    // Token lifetimes

	"invest_tracker/internal/audit"   // Ledger event trail
	"invest_tracker/internal/metrics" // Transition counters
	"invest_tracker/internal/notify"  // Notification mail
	"invest_tracker/internal/store"   // Persistence
	"invest_tracker/internal/utils"   // Cache helpers

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Structured logging
)

// Errors returned by the service in addition to the store sentinels
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrBlocked            = errors.New("account is blocked")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidSecret      = errors.New("invalid admin secret")
	ErrForbidden          = errors.New("admin access required")
)

// ValidationError carries a message that is safe to show to the client
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(msg string) error { return &ValidationError{Msg: msg} }

// Token lifetimes and cache TTLs
const (
	VerificationTTL = 24 * time.Hour
	ResetTTL        = time.Hour

	packagesTTL = 60 * time.Second
	statsTTL    = 30 * time.Second
	usersTTL    = 60 * time.Second

	keyActivePackages = "packages:active"
	keyAdminDashboard = "stats:admin"
	prefixUserStats   = "stats:user:"
	prefixAdminUsers  = "admin:users:"
)

// Options configures a Service
type Options struct {
	JWTSecret                string        // HMAC secret for session tokens
	JWTTTL                   time.Duration // Session token lifetime
	BaseURL                  string        // Public URL used in mailed links
	AdminRegSecret           string        // Shared secret for admin registration, empty disables it
	RequireEmailVerification bool          // Refuse login until the email is verified
}

// Service is safe for concurrent use
type Service struct {
	store store.Store
	rdb   redis.Cmdable
	mail  notify.Notifier
	audit audit.Recorder
	opts  Options
	now   func() time.Time
}

// NewService wires a Service. rdb may be nil to disable caching; a nil
// notifier or recorder falls back to log-only implementations.
func NewService(st store.Store, rdb redis.Cmdable, mail notify.Notifier, rec audit.Recorder, opts Options) *Service {
	if mail == nil {
		mail = logNotifier{}
	}
	if rec == nil {
		rec = audit.NewLogRecorder(100)
	}
	if opts.JWTTTL <= 0 {
		opts.JWTTTL = 24 * time.Hour
	}
	return &Service{store: st, rdb: rdb, mail: mail, audit: rec, opts: opts, now: time.Now}
}

// Store exposes the underlying store to the HTTP middleware
func (s *Service) Store() store.Store { return s.store }

// Audit exposes the event trail
func (s *Service) Audit() audit.Recorder { return s.audit }

type logNotifier struct{}

func (logNotifier) Notify(ctx context.Context, msg notify.Message) {
	_ = notify.LogSender{}.Send(ctx, msg)
}

func userStatsKey(id uint) string {
	return prefixUserStats + strconv.FormatUint(uint64(id), 10)
}

// invalidateLedger drops every cached figure that depends on userID's ledgers
func (s *Service) invalidateLedger(ctx context.Context, userID uint) {
	if err := utils.DeleteCache(ctx, s.rdb, userStatsKey(userID), keyAdminDashboard); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate stats cache")
	}
	s.invalidateUsers(ctx) // Listed users carry their balance
}

func (s *Service) invalidateUsers(ctx context.Context) {
	if err := utils.DeleteCachePrefix(ctx, s.rdb, prefixAdminUsers); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate user list cache")
	}
}

func (s *Service) invalidatePackages(ctx context.Context) {
	if err := utils.DeleteCache(ctx, s.rdb, keyActivePackages); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate package cache")
	}
}

// cached loads key into dest, or fills it with load and stores it for ttl.
// Redis failures degrade to uncached reads.
func cached[T any](ctx context.Context, rdb redis.Cmdable, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var v T
	hit, err := utils.GetCache(ctx, rdb, key, &v)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Cache read failed")
	}
	if hit && err == nil {
		return v, nil
	}
	v, err = load()
	if err != nil {
		return v, err
	}
	if err := utils.SetCache(ctx, rdb, key, v, ttl); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
	return v, nil
}

// record emits the audit event and the transition metric for one ledger write
func (s *Service) record(ctx context.Context, ledgerName string, e audit.Event) {
	metrics.RecordLedgerTransition(ledgerName, e.Status)
	s.audit.Record(ctx, e)
}
