package repository

import (
	"context"
	"errors"

	"prediction-scoreboard/internal/entity"

	"gorm.io/gorm"
)

// UserRepository reads user records written by the auth layer.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]entity.User, error)
}

// NewUserRepository creates a new GORM-based user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entity.ErrUnknownUser
		}
		return nil, err
	}
	return &user, nil
}

// FindByIDs returns the users keyed by id; missing ids are absent from
// the map, not errors.
func (r *userRepository) FindByIDs(ctx context.Context, ids []string) (map[string]entity.User, error) {
	var users []entity.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]entity.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}
