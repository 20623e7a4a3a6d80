package ledger

import (
	"context"       // Request scoped cancellation
	"crypto/subtle" // Constant time secret comparison
	"errors"        // Error inspection
	"net/mail"      // Address syntax check
	"net/url"       // Link query escaping
	"strings"       // Input normalization

	"invest_tracker/internal/audit"  // Ledger event trail
	"invest_tracker/internal/domain" // Domain models
	"invest_tracker/internal/notify" // Notification mail
	"invest_tracker/internal/store"  // Persistence
	"invest_tracker/internal/utils"  // Tokens and JWT

	"github.com/sirupsen/logrus" // Structured logging
	"golang.org/x/crypto/bcrypt" // Password hashing
)

// RegisterInput holds the fields of a new account
type RegisterInput struct {
	Name          string
	Email         string
	Password      string
	WalletAddress string
}

func (in *RegisterInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.WalletAddress = strings.TrimSpace(in.WalletAddress)
	if len(in.Name) < 2 {
		return invalid("Name must be at least 2 characters")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil || !strings.Contains(in.Email, "@") {
		return invalid("Invalid email address")
	}
	if len(in.Password) < 6 {
		return invalid("Password must be at least 6 characters")
	}
	if len(in.WalletAddress) < 10 {
		return invalid("Wallet address must be at least 10 characters")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}

func (s *Service) link(path, token string) string {
	return s.opts.BaseURL + path + "?token=" + url.QueryEscape(token)
}

// Register creates an investor account and mails a verification link
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	token, expires := utils.NewToken(VerificationTTL)
	u := &domain.User{
		Name:                          in.Name,
		Email:                         in.Email,
		Password:                      hash,
		Role:                          domain.RoleInvestor,
		WalletAddress:                 in.WalletAddress,
		EmailVerificationToken:        &token,
		EmailVerificationTokenExpires: &expires,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, invalid("User already exists")
		}
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": u.ID, "email": u.Email}).Info("Investor registered")
	s.mail.Notify(ctx, notify.VerifyEmail(u.Email, u.Name, s.link("/verify-email", token)))
	s.invalidateUsers(ctx)
	return u, nil
}

// VerifyEmail consumes a verification token
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return invalid("Token is required")
	}
	u, err := s.store.GetUserByVerificationToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return invalid("Invalid token")
	} else if err != nil {
		return err
	}
	if u.EmailVerificationTokenExpires == nil || s.now().After(*u.EmailVerificationTokenExpires) {
		return invalid("Token expired")
	}
	u.EmailVerified = true
	u.EmailVerificationToken = nil
	u.EmailVerificationTokenExpires = nil
	return s.store.SaveUser(ctx, u, store.ColEmailVerified, store.ColVerifyToken, store.ColVerifyExpires)
}

// RegisterAdmin creates an admin account when secret matches the configured one
func (s *Service) RegisterAdmin(ctx context.Context, in RegisterInput, secret string) (*domain.User, error) {
	expected := s.opts.AdminRegSecret
	if expected == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(expected)) != 1 {
		logrus.WithField("email", in.Email).Warn("Admin registration with invalid secret")
		return nil, ErrInvalidSecret
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Name:          in.Name,
		Email:         in.Email,
		Password:      hash,
		Role:          domain.RoleAdmin,
		WalletAddress: in.WalletAddress,
		EmailVerified: true,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, invalid("User already exists")
		}
		return nil, err
	}
	s.audit.Record(ctx, audit.Event{Kind: audit.AdminRegistered, UserID: u.ID, At: s.now().UTC()})
	s.invalidateUsers(ctx)
	return u, nil
}

// SeedAdmin makes sure an admin account with email exists. It reports
// whether a new account was created.
func (s *Service) SeedAdmin(ctx context.Context, name, email, password, wallet string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return false, nil
	}
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}
	hash, err := s.hash(password)
	if err != nil {
		return false, err
	}
	if name == "" {
		name = "Admin"
	}
	u := &domain.User{
		Name:          name,
		Email:         email,
		Password:      hash,
		Role:          domain.RoleAdmin,
		WalletAddress: wallet,
		EmailVerified: true,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return false, nil // Lost a race with another seeder
		}
		return false, err
	}
	logrus.WithFields(logrus.Fields{"user_id": u.ID, "email": email}).Info("Admin account seeded")
	return true, nil
}

// Login checks credentials and issues a session token
func (s *Service) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	u, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	} else if err != nil {
		return "", nil, err
	}
	if u.IsBlocked {
		return "", nil, ErrBlocked
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if s.opts.RequireEmailVerification && !u.EmailVerified {
		return "", nil, ErrEmailNotVerified
	}
	token, err := utils.GenerateJWT(u.ID, u.Role, u.WalletAddress, u.Balance.String(), s.opts.JWTSecret, s.opts.JWTTTL)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// ForgotPassword mails a single-use reset link. Unknown addresses are
// ignored so the endpoint does not reveal which emails are registered.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return invalid("Email is required")
	}
	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		logrus.WithField("email", email).Info("Password reset requested for unknown email")
		return nil
	} else if err != nil {
		return err
	}
	token, expires := utils.NewToken(ResetTTL)
	u.PasswordResetToken = &token
	u.PasswordResetTokenExpires = &expires
	if err := s.store.SaveUser(ctx, u, store.ColResetToken, store.ColResetExpires); err != nil {
		return err
	}
	s.audit.Record(ctx, audit.Event{Kind: audit.PasswordResetIssue, UserID: u.ID, At: s.now().UTC()})
	s.mail.Notify(ctx, notify.PasswordReset(u.Email, u.Name, s.link("/reset-password", token)))
	return nil
}

// ResetPassword consumes a reset token and sets a new password
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return invalid("Token is required")
	}
	if len(newPassword) < 6 {
		return invalid("Password must be at least 6 characters")
	}
	u, err := s.store.GetUserByResetToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return invalid("Invalid token")
	} else if err != nil {
		return err
	}
	if u.PasswordResetTokenExpires == nil || s.now().After(*u.PasswordResetTokenExpires) {
		return invalid("Token expired")
	}
	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	u.Password = hash
	u.PasswordResetToken = nil
	u.PasswordResetTokenExpires = nil
	return s.store.SaveUser(ctx, u, store.ColPassword, store.ColResetToken, store.ColResetExpires)
}

// Profile returns the account of id
func (s *Service) Profile(ctx context.Context, id uint) (*domain.User, error) {
	return s.activeUser(ctx, id)
}

// ProfileInput holds the editable profile fields. Nil fields are left unchanged.
type ProfileInput struct {
	Name          *string
	WalletAddress *string
}

// UpdateProfile edits the name and wallet address of id
func (s *Service) UpdateProfile(ctx context.Context, id uint, in ProfileInput) (*domain.User, error) {
	u, err := s.activeUser(ctx, id)
	if err != nil {
		return nil, err
	}
	var columns []string
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if len(name) < 2 {
			return nil, invalid("Name must be at least 2 characters")
		}
		u.Name = name
		columns = append(columns, store.ColName)
	}
	if in.WalletAddress != nil {
		wallet := strings.TrimSpace(*in.WalletAddress)
		if len(wallet) < 10 {
			return nil, invalid("Wallet address must be at least 10 characters")
		}
		u.WalletAddress = wallet
		columns = append(columns, store.ColWalletAddress)
	}
	if len(columns) == 0 {
		return u, nil // Nothing to change
	}
	if err := s.store.SaveUser(ctx, u, columns...); err != nil {
		return nil, err
	}
	s.invalidateUsers(ctx)
	s.mail.Notify(ctx, notify.ProfileUpdated(u.Email, u.Name))
	return u, nil
}

// ChangePassword replaces the password of id after checking the old one
func (s *Service) ChangePassword(ctx context.Context, id uint, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return invalid("Old and new password are required")
	}
	if len(newPassword) < 6 {
		return invalid("Password must be at least 6 characters")
	}
	u, err := s.activeUser(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(oldPassword)); err != nil {
		return invalid("Incorrect old password")
	}
	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	u.Password = hash
	return s.store.SaveUser(ctx, u, store.ColPassword)
}

// RequireAdmin loads id fresh from the store and checks it may use admin routes
func (s *Service) RequireAdmin(ctx context.Context, id uint) (*domain.User, error) {
	u, err := s.activeUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() {
		return nil, ErrForbidden
	}
	return u, nil
}

// activeUser loads id and rejects blocked accounts
func (s *Service) activeUser(ctx context.Context, id uint) (*domain.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.IsBlocked {
		return nil, ErrBlocked
	}
	return u, nil
}
