package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/bidtounsi/go-bidtounsi-server/global"
	"github.com/bidtounsi/go-bidtounsi-server/repository"
	"github.com/bidtounsi/go-bidtounsi-server/types"
)

// UserService manages administrator accounts
type UserService struct {
	userRepo repository.Repository
}

func NewUserService(dbSelector repository.DBSelector) *UserService {
	userRepo, err := dbSelector.ChooseDB(repository.Users)
	if err != nil {
		panic(err)
	}
	return &UserService{userRepo: userRepo}
}

// CreateAdminUser creates an administrator account. The document id is the
// lowercased email, so a concurrent creation for the same address loses with
// ErrUserExists instead of producing a duplicate.
func (us *UserService) CreateAdminUser(ctx context.Context, email, password, name, phoneNumber string) (*types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().UnixMilli()
	user := &types.User{
		BaseDocument: types.BaseDocument{ID: email},
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         types.RoleAdmin,
		PhoneNumber:  phoneNumber,
		Created:      now,
		Modified:     now,
	}
	if sErr := us.userRepo.Save(ctx, email, user); sErr != nil {
		if errors.Is(sErr, types.ErrConflict) {
			return nil, types.ErrUserExists
		}
		global.Logger.Log("level", "error", "msg", "failed to save admin user", "err", sErr.Error())
		return nil, sErr
	}
	return user, nil
}

// GetAdminByEmail returns the admin account for the email, ErrNotFound when
// the account is missing or is not an admin
func (us *UserService) GetAdminByEmail(ctx context.Context, email string) (*types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	resp, err := us.userRepo.GetByID(ctx, email)
	if err != nil {
		return nil, err
	}
	var user types.User
	if mErr := repository.MapToObject(resp.(*resty.Response), &user); mErr != nil {
		return nil, mErr
	}
	if user.Role != types.RoleAdmin {
		return nil, types.ErrNotFound
	}
	return &user, nil
}

// Exists reports whether any account is registered under the email
func (us *UserService) Exists(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := us.userRepo.GetByID(ctx, email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
