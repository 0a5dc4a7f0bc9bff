package services

import (
	"context"

	"github.com/hostdeck/hostdeck/internal/auth"
	"github.com/hostdeck/hostdeck/internal/domain/ledger"
	"github.com/hostdeck/hostdeck/internal/pkg/errors"
	"github.com/hostdeck/hostdeck/internal/pkg/logger"
)

// UserService implements ledger.Accounts
type UserService struct {
	repo          ledger.Repository
	initialLimits ledger.Resources
	bcryptCost    int
	logger        *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(repo ledger.Repository, initialLimits ledger.Resources, bcryptCost int, log *logger.Logger) ledger.Accounts {
	return &UserService{
		repo:          repo,
		initialLimits: initialLimits,
		bcryptCost:    bcryptCost,
		logger:        log,
	}
}

// Register creates a user seeded with the configured initial limits.
func (s *UserService) Register(ctx context.Context, email, username, password string) (*ledger.User, error) {
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, errors.Conflict("email already registered")
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, errors.Internal("Failed to hash password", err)
	}

	u := &ledger.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Rank:         ledger.RankFree,
		Limits:       s.initialLimits,
		OwnedPlans:   make(map[int64]ledger.PlanGrant),
	}

	if err := s.repo.Create(ctx, u); err != nil {
		s.logger.ErrorWithErr(err, "Failed to create user")
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": u.ID,
		"email":   u.Email,
	}).Info("User registered")

	return u, nil
}

// Authenticate verifies credentials and returns the user.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*ledger.User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		// Same response for unknown email and wrong password.
		return nil, errors.Unauthorized("invalid credentials")
	}

	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, errors.Unauthorized("invalid credentials")
	}

	return u, nil
}

// Get retrieves a user by ID
func (s *UserService) Get(ctx context.Context, id int64) (*ledger.User, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves users with pagination
func (s *UserService) List(ctx context.Context, limit, offset int) ([]*ledger.User, int64, error) {
	return s.repo.List(ctx, limit, offset)
}

// UpdateProfile changes email and username.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, email, username string) (*ledger.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	u.Email = email
	u.Username = username
	if err := s.repo.Update(ctx, u); err != nil {
		s.logger.ErrorWithErr(err, "Failed to update user")
		return nil, err
	}

	return u, nil
}

// LinkPanelAccount attaches the external panel account used for usage
// reconciliation.
func (s *UserService) LinkPanelAccount(ctx context.Context, id, panelUserID int64) (*ledger.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	u.PanelUserID = &panelUserID
	if err := s.repo.Update(ctx, u); err != nil {
		s.logger.ErrorWithErr(err, "Failed to link panel account")
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":       id,
		"panel_user_id": panelUserID,
	}).Info("Panel account linked")

	return u, nil
}

// AdjustCoins credits or debits coins. The balance never goes negative.
func (s *UserService) AdjustCoins(ctx context.Context, id, delta int64) (*ledger.User, error) {
	u, err := mutateLedger(ctx, s.repo, id, func(u *ledger.User) error {
		if u.Coins+delta < 0 {
			return errors.BadRequest("coin balance cannot go negative")
		}
		u.Coins += delta
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": id,
		"delta":   delta,
		"coins":   u.Coins,
	}).Info("Coins adjusted")

	return u, nil
}

// SetAdmin grants or removes the admin rank. On removal the rank falls back
// to what the owned plans imply.
func (s *UserService) SetAdmin(ctx context.Context, id int64, admin bool) (*ledger.User, error) {
	u, err := mutateLedger(ctx, s.repo, id, func(u *ledger.User) error {
		if admin {
			u.Rank = ledger.RankAdmin
		} else {
			u.Rank = ledger.DeriveRank(ledger.RankFree, len(u.OwnedPlans))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": id,
		"rank":    string(u.Rank),
	}).Info("Admin rank changed")

	return u, nil
}

// Delete removes a user
func (s *UserService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
