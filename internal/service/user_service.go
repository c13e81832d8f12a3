package service

import (
	"context"

	"github.com/campushq/campusgate/internal/model"
	"github.com/campushq/campusgate/internal/repository"
)

// UserService exposes user lookups and account management.
type UserService struct {
	userRepo *repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetByID(ctx context.Context, id int) (*model.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.userRepo.GetByUsername(ctx, username)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.userRepo.GetByEmail(ctx, email)
}

func (s *UserService) ListPaginated(ctx context.Context, role *model.Role, limit, offset int) ([]model.User, int, error) {
	return s.userRepo.ListPaginated(ctx, role, limit, offset)
}

func (s *UserService) Create(ctx context.Context, u *model.User) error {
	return s.userRepo.Create(ctx, u)
}

func (s *UserService) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	return s.userRepo.UpdatePassword(ctx, id, passwordHash)
}
