package controllers

import (
	"context"
	"encoding/json"

	"go-soilwater/models"
	"go-soilwater/repository"
)

// TaskRunner 执行估算任务，*pipeline.Pipeline 实现了它
type TaskRunner interface {
	Run(task string, payload json.RawMessage) (models.Envelope, error)
	Calibrate(req models.CalibrationRequest) (models.CalibrationModel, error)
}

// RecordRepository 任务记录和标定结果的存储
type RecordRepository interface {
	SaveEstimation(ctx context.Context, rec *models.EstimationRecord) error
	ListEstimations(ctx context.Context, userID int, filter repository.EstimationFilter) ([]models.EstimationRecord, int, error)
	GetEstimation(ctx context.Context, userID int, publicID string) (models.EstimationRecord, error)
	SaveCalibration(ctx context.Context, rec *models.CalibrationRecord) error
	ListCalibrations(ctx context.Context, userID int, sensor string) ([]models.CalibrationRecord, error)
}

// OperatorRepository 操作员账号存储
type OperatorRepository interface {
	Create(ctx context.Context, username, passwordHash string) (models.Operator, error)
	FindByUsername(ctx context.Context, username string) (models.Operator, error)
}
