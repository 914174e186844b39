package controllers

import (
	"math"
	"net/http"
	"strconv"

	"push-service/models"
	"push-service/repository"
	"push-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PushController struct {
	dispatcher services.DispatchService
	logs       repository.PushLogRepository
	logger     *zap.Logger
}

func NewPushController(dispatcher services.DispatchService, logs repository.PushLogRepository, logger *zap.Logger) *PushController {
	return &PushController{dispatcher: dispatcher, logs: logs, logger: logger}
}

const (
	maxPageSize     = 100
	defaultPage     = 1
	defaultPageSize = 20
)

func parsePaginationParams(ctx *gin.Context) (int, int) {
	page := defaultPage
	pageSize := defaultPageSize

	if p, err := strconv.Atoi(ctx.DefaultQuery("page", "1")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(ctx.DefaultQuery("page_size", "20")); err == nil && l > 0 {
		pageSize = l
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}
	}
	return page, pageSize
}

// Dispatch accepts a tagged event envelope and performs one delivery
// attempt. The outcome is returned as-is; terminal failures mean the caller
// should drop the token, not retry.
func (pc *PushController) Dispatch(ctx *gin.Context) {
	var envelope models.EventEnvelope
	if err := ctx.ShouldBindJSON(&envelope); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	event, err := models.DecodeEvent(envelope)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome := pc.dispatcher.Dispatch(ctx.Request.Context(), event)
	ctx.JSON(http.StatusOK, outcome)
}

// GetPushLogs lists audit log entries with optional token/os/success filters.
func (pc *PushController) GetPushLogs(ctx *gin.Context) {
	page, pageSize := parsePaginationParams(ctx)

	filter := models.PushLogFilter{
		Token:    ctx.Query("token"),
		OS:       ctx.Query("os"),
		Page:     page,
		PageSize: pageSize,
	}
	if successStr := ctx.Query("success"); successStr != "" {
		success, err := strconv.ParseBool(successStr)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid success filter"})
			return
		}
		filter.Success = &success
	}

	logs, total, err := pc.logs.GetLogs(ctx.Request.Context(), filter)
	if err != nil {
		pc.logger.Error("failed to get push logs", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))

	ctx.JSON(http.StatusOK, gin.H{
		"data":        logs,
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": totalPages,
	})
}
