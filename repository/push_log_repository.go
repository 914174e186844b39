package repository

import (
	"context"

	"push-service/models"

	"gorm.io/gorm"
)

type PushLogRepository interface {
	SaveLog(ctx context.Context, log *models.PushLog) error
	GetLogs(ctx context.Context, filter models.PushLogFilter) ([]models.PushLog, int64, error)
}

type pushLogRepository struct {
	db *gorm.DB
}

func NewPushLogRepository(db *gorm.DB) PushLogRepository {
	return &pushLogRepository{db: db}
}

func (r *pushLogRepository) SaveLog(ctx context.Context, log *models.PushLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *pushLogRepository) GetLogs(ctx context.Context, filter models.PushLogFilter) ([]models.PushLog, int64, error) {
	var logs []models.PushLog
	var total int64

	if filter.PageSize < 1 {
		filter.PageSize = 10
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	if filter.Page < 1 {
		filter.Page = 1
	}

	query := r.db.WithContext(ctx).Model(&models.PushLog{})

	if filter.Token != "" {
		query = query.Where("token = ?", filter.Token)
	}
	if filter.OS != "" {
		query = query.Where("os = ?", filter.OS)
	}
	if filter.Success != nil {
		query = query.Where("success = ?", *filter.Success)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.PageSize
	err := query.Order("created_at DESC").
		Limit(filter.PageSize).
		Offset(offset).
		Find(&logs).Error

	return logs, total, err
}
