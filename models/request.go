package models

// CalibrationRequest soil_sensor_calibrator 任务的载荷
type CalibrationRequest struct {
	SensorReadings      []float64 `json:"sensor_readings" binding:"required"`
	MoisturePercentages []float64 `json:"moisture_percentages" binding:"required"`
	SensorFullScale     int       `json:"sensor_full_scale" binding:"omitempty,gt=0"`
}

// EstimationRequest 基于原始读数的估算任务载荷
type EstimationRequest struct {
	SensorReadings    [][]float64 `json:"sensor_readings" binding:"required,min=1"`
	Radius            float64     `json:"radius" binding:"gt=0"`
	Height            float64     `json:"height" binding:"gte=0"` // 只有用到高度的任务才要求 > 0
	Mode              string      `json:"mode"`
	CalibrationCoeffs []float64   `json:"calibration_coeffs" binding:"omitempty,min=1"`
	SensorFullScale   int         `json:"sensor_full_scale" binding:"omitempty,gt=0"`
	Strategy          string      `json:"strategy" binding:"omitempty,oneof=cubic kriging"`
}

// MoistureRequest 基于已标定水分值的估算任务载荷
type MoistureRequest struct {
	CalibratedMoisture [][]float64 `json:"calibrated_moisture" binding:"required,min=1"`
	Radius             float64     `json:"radius" binding:"gt=0"`
	Height             float64     `json:"height" binding:"gte=0"` // 只有用到高度的任务才要求 > 0
	Strategy           string      `json:"strategy" binding:"omitempty,oneof=cubic kriging"`
}

// 结果状态
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope 任务统一返回结构
type Envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Result  interface{} `json:"result"`
}

// Succeeded 构造成功结果
func Succeeded(message string, result interface{}) Envelope {
	return Envelope{Status: StatusSuccess, Message: message, Result: result}
}

// Failed 构造失败结果，result 固定为 null
func Failed(message string) Envelope {
	return Envelope{Status: StatusError, Message: message}
}
