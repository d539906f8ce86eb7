package pipeline

import (
	"bytes"
	"encoding/json"

	"go-soilwater/models"
)

// 任务名称，与现有 TCP 客户端保持一致
const (
	TaskCalibrate              = "soil_sensor_calibrator"
	TaskTotalWater             = "soil_water_calculator"
	TaskAveragePercentage      = "interpolation_soil_water_percentage"
	TaskKrigedVolume           = "soil_water_percentage"
	TaskVolumeFromMoisture     = "soil_water_volume_from_calibrated_moisture"
	TaskPercentageFromMoisture = "soil_water_percentage_from_calibrated_moisture"
)

type task struct {
	success string
	failure string
	run     func(p *Pipeline, payload json.RawMessage) (interface{}, error)
}

func registry() map[string]task {
	return map[string]task{
		TaskCalibrate: {
			success: "Calibration completed successfully.",
			failure: "Calibration failed",
			run: func(p *Pipeline, payload json.RawMessage) (interface{}, error) {
				var req models.CalibrationRequest
				if err := decode(payload, &req); err != nil {
					return nil, err
				}
				return p.Calibrate(req)
			},
		},
		TaskTotalWater: {
			success: "total water calculated",
			failure: "water calculation failed",
			run:     estimation((*Pipeline).TotalWater),
		},
		TaskAveragePercentage: {
			success: "average soil moisture percentage within the defined area calculated",
			failure: "calculation failed",
			run:     estimation((*Pipeline).AveragePercentage),
		},
		TaskKrigedVolume: {
			success: "Total water volume within the defined area calculated",
			failure: "calculation failed",
			run:     estimation((*Pipeline).KrigedVolume),
		},
		TaskVolumeFromMoisture: {
			success: "Total water volume calculated from calibrated moisture",
			failure: "calculation failed",
			run:     moisture((*Pipeline).VolumeFromMoisture),
		},
		TaskPercentageFromMoisture: {
			success: "Average soil water percentage calculated from calibrated moisture",
			failure: "calculation failed",
			run:     moisture((*Pipeline).PercentageFromMoisture),
		},
	}
}

func estimation(op func(*Pipeline, models.EstimationRequest) (float64, error)) func(*Pipeline, json.RawMessage) (interface{}, error) {
	return func(p *Pipeline, payload json.RawMessage) (interface{}, error) {
		var req models.EstimationRequest
		if err := decode(payload, &req); err != nil {
			return nil, err
		}
		return op(p, req)
	}
}

func moisture(op func(*Pipeline, models.MoistureRequest) (float64, error)) func(*Pipeline, json.RawMessage) (interface{}, error) {
	return func(p *Pipeline, payload json.RawMessage) (interface{}, error) {
		var req models.MoistureRequest
		if err := decode(payload, &req); err != nil {
			return nil, err
		}
		return op(p, req)
	}
}

func decode(payload json.RawMessage, v interface{}) error {
	if len(bytes.TrimSpace(payload)) == 0 {
		return models.Validationf("payload is empty")
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return models.Validationf("invalid payload: %v", err)
	}
	return nil
}
