package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minDNILength = 7
	maxDNILength = 10
)

type UserService struct {
	userRepo UserStore
	hashCost int
	logger   *zap.Logger
}

func NewUserService(userRepo UserStore, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		hashCost: bcrypt.DefaultCost,
		logger:   logger,
	}
}

// validateDNI проверяет DNI пациента, записываемого администратором
func validateDNI(dni string) error {
	if n := len(dni); n < minDNILength || n > maxDNILength {
		return invalid("dni", fmt.Sprintf("must be %d to %d characters", minDNILength, maxDNILength))
	}
	return nil
}

// EnsurePatient находит пациента по DNI или создаёт нового.
// Начальный пароль нового пациента равен его DNI.
// Мягко удалённый пациент восстанавливается.
func (s *UserService) EnsurePatient(ctx context.Context, dni, name string) (*model.User, error) {
	dni = strings.TrimSpace(dni)
	name = strings.TrimSpace(name)

	if err := validateDNI(dni); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, invalid("name", "is required")
	}

	existing, err := s.userRepo.GetByDNI(ctx, dni)
	if err != nil {
		return nil, fmt.Errorf("get user by dni: %w", err)
	}
	if existing != nil {
		return s.reusePatient(ctx, existing, name)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dni), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:         name,
		DNI:          dni,
		PasswordHash: string(hash),
		Role:         model.RolePatient,
	}

	created, err := s.userRepo.CreateIfAbsent(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	if !created {
		// DNI занял параллельный запрос
		existing, err = s.userRepo.GetByDNI(ctx, dni)
		if err != nil {
			return nil, fmt.Errorf("get user by dni: %w", err)
		}
		if existing == nil {
			return nil, fmt.Errorf("create patient: dni %s is taken but not visible", dni)
		}
		return s.reusePatient(ctx, existing, name)
	}

	s.logger.Info("Patient created",
		zap.Int64("user_id", user.ID),
	)

	return user, nil
}

// reusePatient возвращает найденного по DNI пациента, восстанавливая удалённого
func (s *UserService) reusePatient(ctx context.Context, existing *model.User, name string) (*model.User, error) {
	if existing.Role != model.RolePatient {
		return nil, invalid("dni", "belongs to a non-patient user")
	}

	if existing.IsDeleted {
		existing.Name = name
		if err := s.userRepo.Reactivate(ctx, existing); err != nil {
			return nil, fmt.Errorf("reactivate patient: %w", err)
		}

		s.logger.Info("Patient reactivated",
			zap.Int64("user_id", existing.ID),
		)
	}

	return existing, nil
}

// GetUser получает пользователя по ID
func (s *UserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if user == nil {
		return nil, ErrUserNotFound
	}

	return user, nil
}

// ListUsersInput фильтры списка пользователей
type ListUsersInput struct {
	Name  string
	DNI   string
	Roles []model.Role
	Page  int
	Limit int
}

// ListUsers возвращает страницу пользователей
func (s *UserService) ListUsers(ctx context.Context, in ListUsersInput) (*model.Page[*model.User], error) {
	for _, role := range in.Roles {
		if !role.Valid() {
			return nil, invalid("role", fmt.Sprintf("unknown role %q", role))
		}
	}
	if in.Page < 0 {
		return nil, invalid("page", "must be at least 1")
	}
	if in.Limit < 0 {
		return nil, invalid("limit", "must be at least 1")
	}

	q := model.UserQuery{
		Name:  strings.TrimSpace(in.Name),
		DNI:   strings.TrimSpace(in.DNI),
		Roles: in.Roles,
	}

	page, err := s.userRepo.List(ctx, q, model.PageRequest{Page: in.Page, Limit: in.Limit})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return page, nil
}
