package repository

import (
	"context"

	"push-service/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PushTokenRepository is the device token registry keyed by
// (owner identity, platform).
type PushTokenRepository interface {
	Upsert(ctx context.Context, token *models.PushToken) error
	FindByOwner(ctx context.Context, address string) ([]models.PushToken, error)
	FindByOwnerAndPlatform(ctx context.Context, address, platform string) (*models.PushToken, error)
}

type pushTokenRepository struct {
	db *gorm.DB
}

func NewPushTokenRepository(db *gorm.DB) PushTokenRepository {
	return &pushTokenRepository{db: db}
}

func (r *pushTokenRepository) Upsert(ctx context.Context, token *models.PushToken) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}, {Name: "platform"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "updated_at"}),
	}).Create(token).Error
}

func (r *pushTokenRepository) FindByOwner(ctx context.Context, address string) ([]models.PushToken, error) {
	var tokens []models.PushToken
	err := r.db.WithContext(ctx).
		Where("address = ?", address).
		Order("updated_at DESC").
		Find(&tokens).Error
	return tokens, err
}

func (r *pushTokenRepository) FindByOwnerAndPlatform(ctx context.Context, address, platform string) (*models.PushToken, error) {
	var token models.PushToken
	err := r.db.WithContext(ctx).
		Where("address = ? AND platform = ?", address, platform).
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}
