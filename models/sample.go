package models

import "math"

// SensorSample 单个传感器读数
type SensorSample struct {
	Distance float64 `json:"distance"`
	Depth    float64 `json:"depth"`
	RawValue float64 `json:"raw_value"`
}

// CalibratedSample 带有标定后水分值(%)的读数
type CalibratedSample struct {
	SensorSample
	Moisture float64 `json:"moisture"`
}

// ParseSensorRows 把 [[distance, depth, value], ...] 转换成读数列表
func ParseSensorRows(rows [][]float64) ([]SensorSample, error) {
	return parseRows("sensor_readings", rows)
}

func parseRows(field string, rows [][]float64) ([]SensorSample, error) {
	if len(rows) == 0 {
		return nil, Validationf("%s is empty", field)
	}
	samples := make([]SensorSample, 0, len(rows))
	for i, row := range rows {
		if len(row) != 3 {
			return nil, Validationf("%s[%d] must have 3 values, got %d", field, i, len(row))
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, Validationf("%s[%d] contains a non-finite value", field, i)
			}
		}
		if row[0] < 0 || row[1] < 0 {
			return nil, Validationf("%s[%d]: distance and depth must be >= 0", field, i)
		}
		samples = append(samples, SensorSample{Distance: row[0], Depth: row[1], RawValue: row[2]})
	}
	return samples, nil
}

// ParseMoistureRows 把 [[distance, depth, moisture], ...] 转换成已标定读数
func ParseMoistureRows(rows [][]float64) ([]CalibratedSample, error) {
	raw, err := parseRows("calibrated_moisture", rows)
	if err != nil {
		return nil, err
	}
	samples := make([]CalibratedSample, len(raw))
	for i, s := range raw {
		samples[i] = CalibratedSample{
			SensorSample: SensorSample{Distance: s.Distance, Depth: s.Depth},
			Moisture:     s.RawValue,
		}
	}
	return samples, nil
}
