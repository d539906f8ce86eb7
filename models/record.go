package models

import "time"

// EstimationRecord 一次任务执行的历史记录
type EstimationRecord struct {
	ID        int64     `json:"id"`
	PublicID  string    `json:"publicId"`
	UserID    int       `json:"userId"`
	Task      string    `json:"task"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Payload   string    `json:"payload"`
	Result    string    `json:"result"`
	CreatedAt time.Time `json:"createdAt"`
}

// CalibrationRecord 保存下来的传感器标定
type CalibrationRecord struct {
	ID        int64            `json:"id"`
	UserID    int              `json:"userId"`
	Sensor    string           `json:"sensor"`
	Model     CalibrationModel `json:"model"`
	CreatedAt time.Time        `json:"createdAt"`
}
