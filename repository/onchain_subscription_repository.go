package repository

import (
	"context"

	"push-service/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OnchainSubscriptionRepository maps subscriber identities to the on-chain
// addresses they follow. The fan-out layer reads it to decide who to notify.
type OnchainSubscriptionRepository interface {
	Save(ctx context.Context, sub *models.OnchainSubscription) error
	Delete(ctx context.Context, subscriberAddress, address string) error
	FindByAddress(ctx context.Context, address string) ([]models.OnchainSubscription, error)
	FindBySubscriber(ctx context.Context, subscriberAddress string) ([]models.OnchainSubscription, error)
}

type onchainSubscriptionRepository struct {
	db *gorm.DB
}

func NewOnchainSubscriptionRepository(db *gorm.DB) OnchainSubscriptionRepository {
	return &onchainSubscriptionRepository{db: db}
}

func (r *onchainSubscriptionRepository) Save(ctx context.Context, sub *models.OnchainSubscription) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}, {Name: "subscriber_address"}},
		DoUpdates: clause.AssignmentColumns([]string{"updated_at"}),
	}).Create(sub).Error
}

func (r *onchainSubscriptionRepository) Delete(ctx context.Context, subscriberAddress, address string) error {
	return r.db.WithContext(ctx).
		Where("subscriber_address = ? AND address = ?", subscriberAddress, address).
		Delete(&models.OnchainSubscription{}).Error
}

func (r *onchainSubscriptionRepository) FindByAddress(ctx context.Context, address string) ([]models.OnchainSubscription, error) {
	var subs []models.OnchainSubscription
	err := r.db.WithContext(ctx).
		Where("address = ?", address).
		Find(&subs).Error
	return subs, err
}

func (r *onchainSubscriptionRepository) FindBySubscriber(ctx context.Context, subscriberAddress string) ([]models.OnchainSubscription, error) {
	var subs []models.OnchainSubscription
	err := r.db.WithContext(ctx).
		Where("subscriber_address = ?", subscriberAddress).
		Order("updated_at DESC").
		Find(&subs).Error
	return subs, err
}
