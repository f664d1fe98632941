package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/NicolasR-dev/dinocars-web/models"
	"github.com/NicolasR-dev/dinocars-web/utils"
	"github.com/NicolasR-dev/dinocars-web/validators"

	"gorm.io/gorm"
)

// PasswordHasher lo implementa AuthService
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type UserService struct {
	db     *gorm.DB
	hasher PasswordHasher
}

func NewUserService(db *gorm.DB, hasher PasswordHasher) *UserService {
	return &UserService{db: db, hasher: hasher}
}

// List retorna los usuarios con sus turnos
func (s *UserService) List(ctx context.Context, skip, limit int) ([]models.User, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	users := []models.User{}
	err := s.db.WithContext(ctx).
		Preload("Schedules", func(db *gorm.DB) *gorm.DB {
			return db.Order("date ASC").Order("start_time ASC")
		}).
		Order("username ASC").
		Offset(skip).Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Get busca un usuario por id
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Schedules").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create da de alta un usuario con la contraseña hasheada
func (s *UserService) Create(ctx context.Context, req *models.UserCreateRequest) (*models.User, error) {
	username, err := validators.ValidateUsername(req.Username)
	if err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = models.RoleWorker
	}
	if err := validators.ValidateRole(role); err != nil {
		return nil, err
	}
	for _, t := range []*string{req.DefaultStartTime, req.DefaultEndTime, req.OpeningStartTime,
		req.OpeningEndTime, req.ClosingStartTime, req.ClosingEndTime} {
		if err := validators.ValidateClock(t); err != nil {
			return nil, err
		}
	}

	taken, err := s.usernameTaken(ctx, username, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	hash, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hasheando contraseña: %w", err)
	}

	user := models.User{
		Username:         username,
		PasswordHash:     hash,
		Role:             role,
		DefaultStartTime: req.DefaultStartTime,
		DefaultEndTime:   req.DefaultEndTime,
		OpeningStartTime: req.OpeningStartTime,
		OpeningEndTime:   req.OpeningEndTime,
		ClosingStartTime: req.ClosingStartTime,
		ClosingEndTime:   req.ClosingEndTime,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("creando usuario: %w", err)
	}

	utils.LogBusinessEvent("user_created", user.ID, map[string]interface{}{
		"username": user.Username,
		"role":     user.Role,
	})
	return &user, nil
}

// Update aplica una edición parcial
func (s *UserService) Update(ctx context.Context, id uint, req *models.UserUpdateRequest) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Username != nil && *req.Username != user.Username {
		username, err := validators.ValidateUsername(*req.Username)
		if err != nil {
			return nil, err
		}
		taken, err := s.usernameTaken(ctx, username, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrUsernameTaken
		}
		user.Username = username
	}

	if req.Password != nil && *req.Password != "" {
		hash, err := s.hasher.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hasheando contraseña: %w", err)
		}
		user.PasswordHash = hash
	}

	if req.Role != nil && *req.Role != "" {
		if err := validators.ValidateRole(*req.Role); err != nil {
			return nil, err
		}
		user.Role = *req.Role
	}

	presets := []struct {
		in  *string
		out **string
	}{
		{req.DefaultStartTime, &user.DefaultStartTime},
		{req.DefaultEndTime, &user.DefaultEndTime},
		{req.OpeningStartTime, &user.OpeningStartTime},
		{req.OpeningEndTime, &user.OpeningEndTime},
		{req.ClosingStartTime, &user.ClosingStartTime},
		{req.ClosingEndTime, &user.ClosingEndTime},
	}
	for _, p := range presets {
		if p.in == nil {
			continue
		}
		if err := validators.ValidateClock(p.in); err != nil {
			return nil, err
		}
		// "" borra el turno predefinido
		if *p.in == "" {
			*p.out = nil
		} else {
			v := *p.in
			*p.out = &v
		}
	}

	if err := s.db.WithContext(ctx).Omit("Schedules").Save(user).Error; err != nil {
		return nil, fmt.Errorf("actualizando usuario: %w", err)
	}
	return user, nil
}

// Delete elimina el usuario y sus turnos. Un usuario no puede eliminarse a sí mismo.
func (s *UserService) Delete(ctx context.Context, id, actorID uint) error {
	if id == actorID {
		return ErrSelfDelete
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.Schedule{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	utils.LogBusinessEvent("user_deleted", actorID, map[string]interface{}{"deleted_user_id": id})
	return nil
}

func (s *UserService) usernameTaken(ctx context.Context, username string, exceptID uint) (bool, error) {
	var count int64
	q := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
