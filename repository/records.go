package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go-soilwater/models"
)

// RecordStore 任务记录和标定结果
type RecordStore struct {
	DB *sql.DB
}

// NewRecordStore 创建一个新的RecordStore实例
func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{DB: db}
}

// EstimationFilter 任务记录查询条件，Task 为空表示全部
type EstimationFilter struct {
	Task string
	Page Page
}

// SaveEstimation 保存一次任务执行，回填 ID 和 CreatedAt
func (s *RecordStore) SaveEstimation(ctx context.Context, rec *models.EstimationRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	result, err := s.DB.ExecContext(ctx,
		`INSERT INTO estimation_records (public_id, user_id, task, status, message, payload, result, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.PublicID, rec.UserID, rec.Task, rec.Status, rec.Message, rec.Payload, rec.Result, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert estimation record: %w", translate(err))
	}
	if rec.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("insert estimation record: %w", err)
	}
	return nil
}

// ListEstimations 某个用户的任务记录，按时间倒序，同时返回总数
func (s *RecordStore) ListEstimations(ctx context.Context, userID int, filter EstimationFilter) ([]models.EstimationRecord, int, error) {
	page := filter.Page.Normalize()

	where := " WHERE user_id = ?"
	params := []interface{}{userID}
	if filter.Task != "" {
		where += " AND task = ?"
		params = append(params, filter.Task)
	}

	var total int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM estimation_records"+where, params...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count estimation records: %w", err)
	}

	query := `SELECT id, public_id, user_id, task, status, message, payload, result, created_at
		FROM estimation_records` + where + " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := s.DB.QueryContext(ctx, query, append(params, page.Size, page.offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("query estimation records: %w", err)
	}
	defer rows.Close()

	records := []models.EstimationRecord{}
	for rows.Next() {
		rec, err := scanEstimation(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("query estimation records: %w", err)
	}
	return records, total, nil
}

// GetEstimation 按公开 ID 查询，只能查到自己的记录
func (s *RecordStore) GetEstimation(ctx context.Context, userID int, publicID string) (models.EstimationRecord, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, public_id, user_id, task, status, message, payload, result, created_at
		FROM estimation_records WHERE public_id = ? AND user_id = ?`,
		publicID, userID,
	)
	rec, err := scanEstimation(row)
	if err != nil {
		return models.EstimationRecord{}, err
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEstimation(row scanner) (models.EstimationRecord, error) {
	var rec models.EstimationRecord
	var message, payload, result sql.NullString
	err := row.Scan(&rec.ID, &rec.PublicID, &rec.UserID, &rec.Task, &rec.Status, &message, &payload, &result, &rec.CreatedAt)
	if err != nil {
		return models.EstimationRecord{}, fmt.Errorf("scan estimation record: %w", translate(err))
	}
	rec.Message, rec.Payload, rec.Result = message.String, payload.String, result.String
	return rec, nil
}

// SaveCalibration 保存某个传感器的标定结果
func (s *RecordStore) SaveCalibration(ctx context.Context, rec *models.CalibrationRecord) error {
	coeffs, err := json.Marshal(rec.Model.Coefficients)
	if err != nil {
		return fmt.Errorf("encode coefficients: %w", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	result, err := s.DB.ExecContext(ctx,
		`INSERT INTO calibration_models (user_id, sensor, degree, coefficients, r_squared, aic, bic, sensor_full_scale, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.Sensor, rec.Model.Degree, string(coeffs),
		nullable(rec.Model.RSquared), nullable(rec.Model.AIC), nullable(rec.Model.BIC),
		rec.Model.FullScale, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert calibration model: %w", translate(err))
	}
	if rec.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("insert calibration model: %w", err)
	}
	return nil
}

// ListCalibrations 传感器的历史标定，最新的在前；sensor 为空返回该用户全部
func (s *RecordStore) ListCalibrations(ctx context.Context, userID int, sensor string) ([]models.CalibrationRecord, error) {
	query := `SELECT id, user_id, sensor, degree, coefficients, r_squared, aic, bic, sensor_full_scale, created_at
		FROM calibration_models WHERE user_id = ?`
	params := []interface{}{userID}
	if sensor != "" {
		query += " AND sensor = ?"
		params = append(params, sensor)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.DB.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query calibration models: %w", err)
	}
	defer rows.Close()

	records := []models.CalibrationRecord{}
	for rows.Next() {
		var rec models.CalibrationRecord
		var coeffs string
		var r2, aic, bic sql.NullFloat64
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Sensor, &rec.Model.Degree, &coeffs, &r2, &aic, &bic, &rec.Model.FullScale, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan calibration model: %w", err)
		}
		if err := json.Unmarshal([]byte(coeffs), &rec.Model.Coefficients); err != nil {
			return nil, fmt.Errorf("decode coefficients of calibration %d: %w", rec.ID, err)
		}
		rec.Model.RSquared, rec.Model.AIC, rec.Model.BIC = fromNullable(r2), fromNullable(aic), fromNullable(bic)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query calibration models: %w", err)
	}
	return records, nil
}
