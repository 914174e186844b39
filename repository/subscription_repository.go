package repository

import (
	"context"
	"fmt"

	"push-service/models"

	"gorm.io/gorm"
)

// SubscriptionRepository manages the three token-to-subject index tables.
type SubscriptionRepository interface {
	SubscribeAddress(ctx context.Context, sub *models.TokenToAddress) error
	SubscribeTxid(ctx context.Context, sub *models.TokenToTxid) error
	SubscribeHash(ctx context.Context, sub *models.TokenToHash) error
	// DeleteAllForToken removes every row referencing the token from all
	// three index tables. Deleting zero rows is not an error; calling it
	// again for the same token is a no-op.
	DeleteAllForToken(ctx context.Context, token string) error
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) SubscribeAddress(ctx context.Context, sub *models.TokenToAddress) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *subscriptionRepository) SubscribeTxid(ctx context.Context, sub *models.TokenToTxid) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *subscriptionRepository) SubscribeHash(ctx context.Context, sub *models.TokenToHash) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *subscriptionRepository) DeleteAllForToken(ctx context.Context, token string) error {
	// The three deletes are intentionally independent: a crash between them
	// leaves at most a stale row that the next terminal failure clears.
	if err := r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.TokenToAddress{}).Error; err != nil {
		return fmt.Errorf("delete address subscriptions: %w", err)
	}
	if err := r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.TokenToTxid{}).Error; err != nil {
		return fmt.Errorf("delete txid subscriptions: %w", err)
	}
	if err := r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.TokenToHash{}).Error; err != nil {
		return fmt.Errorf("delete hash subscriptions: %w", err)
	}
	return nil
}
