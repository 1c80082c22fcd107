package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/Freeeeeet/clinic_scheduler/internal/repository/base"
	"github.com/Freeeeeet/clinic_scheduler/internal/repository/query"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `u.id, u.name, u.email, u.dni, u.password_hash, u.role, u.is_active, u.is_deleted, u.created_at, u.updated_at`

type UserRepository struct {
	*base.Repository
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{Repository: base.NewRepository(pool)}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.DNI,
		&user.PasswordHash,
		&user.Role,
		&user.IsActive,
		&user.IsDeleted,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateIfAbsent создаёт пользователя, если его DNI ещё свободен.
// false без ошибки означает, что DNI уже занят, в том числе параллельной транзакцией.
func (r *UserRepository) CreateIfAbsent(ctx context.Context, user *model.User) (bool, error) {
	query := `
		INSERT INTO users (name, email, dni, password_hash, role, is_active, is_deleted)
		VALUES ($1, $2, $3, $4, $5, true, false)
		ON CONFLICT (dni) DO NOTHING
		RETURNING id, is_active, is_deleted, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		user.Name,
		user.Email,
		user.DNI,
		user.PasswordHash,
		user.Role,
	).Scan(&user.ID, &user.IsActive, &user.IsDeleted, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("create user: %w", err)
	}

	return true, nil
}

// GetByID получает активного пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1 AND u.is_deleted = false`

	user, err := scanUser(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return user, nil
}

// GetDoctor получает врача: роль doctor и запись не удалена
func (r *UserRepository) GetDoctor(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1 AND u.role = $2 AND u.is_deleted = false`

	user, err := scanUser(r.QueryRow(ctx, query, id, model.RoleDoctor))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get doctor: %w", err)
	}

	return user, nil
}

// GetByDNI получает пользователя по DNI, включая удалённых
func (r *UserRepository) GetByDNI(ctx context.Context, dni string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.dni = $1`

	user, err := scanUser(r.QueryRow(ctx, query, dni))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by dni: %w", err)
	}

	return user, nil
}

// Reactivate восстанавливает мягко удалённого пользователя
func (r *UserRepository) Reactivate(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET name = $1, is_active = true, is_deleted = false, updated_at = NOW()
		WHERE id = $2
		RETURNING is_active, is_deleted, updated_at
	`

	err := r.QueryRow(ctx, query, user.Name, user.ID).Scan(&user.IsActive, &user.IsDeleted, &user.UpdatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("user not found")
		}
		return fmt.Errorf("reactivate user: %w", err)
	}

	return nil
}

func userFilter(q model.UserQuery) query.Filter {
	f := query.Filter{}.Where("u.is_deleted = false")

	if q.Name != "" {
		pattern := "%" + q.Name + "%"
		f = f.Where("(u.name ILIKE ? OR u.dni ILIKE ?)", pattern, pattern)
	}
	if q.DNI != "" {
		f = f.Where("u.dni ILIKE ?", "%"+q.DNI+"%")
	}
	if len(q.Roles) > 0 {
		roles := make([]any, len(q.Roles))
		for i, role := range q.Roles {
			roles[i] = role
		}
		f = f.WhereIn("u.role", roles...)
	}

	return f
}

var userSource = query.Source{
	Columns: userColumns,
	From:    "users u",
	OrderBy: "u.id DESC",
}

// List возвращает страницу пользователей по фильтрам
func (r *UserRepository) List(ctx context.Context, q model.UserQuery, page model.PageRequest) (*model.Page[*model.User], error) {
	result, err := query.Paginate(ctx, r.Conn(ctx), userSource, userFilter(q), page, scanUser)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return result, nil
}

// SpecialtiesByDoctor получает активные специальности врачей
func (r *UserRepository) SpecialtiesByDoctor(ctx context.Context, doctorIDs []int64) (map[int64][]model.Specialty, error) {
	result := make(map[int64][]model.Specialty, len(doctorIDs))
	if len(doctorIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT ds.doctor_id, s.id, s.name
		FROM doctor_specialties ds
		JOIN specialties s ON s.id = ds.specialty_id
		WHERE ds.doctor_id = ANY($1) AND ds.is_deleted = false
		ORDER BY s.name
	`

	rows, err := r.Query(ctx, query, doctorIDs)
	if err != nil {
		return nil, fmt.Errorf("get specialties by doctor: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var doctorID int64
		var specialty model.Specialty
		if err := rows.Scan(&doctorID, &specialty.ID, &specialty.Name); err != nil {
			return nil, fmt.Errorf("scan specialty: %w", err)
		}
		result[doctorID] = append(result[doctorID], specialty)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate specialties: %w", err)
	}

	return result, nil
}
