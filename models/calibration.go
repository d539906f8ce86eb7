package models

import (
	"encoding/json"
	"math"
)

// CalibrationModel 拟合得到的标定曲线
type CalibrationModel struct {
	Degree       int       `json:"degree"`
	Coefficients []float64 `json:"coefficients"` // 高次项在前
	RSquared     float64   `json:"r_squared"`
	AIC          float64   `json:"aic"`
	BIC          float64   `json:"bic"`
	FullScale    int       `json:"sensor_full_scale"`
}

type calibrationModelJSON struct {
	Degree       int       `json:"degree"`
	Coefficients []float64 `json:"coefficients"`
	RSquared     *float64  `json:"r_squared"`
	AIC          *float64  `json:"aic"`
	BIC          *float64  `json:"bic"`
	FullScale    int       `json:"sensor_full_scale"`
}

// MarshalJSON 完全拟合时 AIC/BIC 为 -Inf，JSON 中输出 null
func (m CalibrationModel) MarshalJSON() ([]byte, error) {
	return json.Marshal(calibrationModelJSON{
		Degree:       m.Degree,
		Coefficients: m.Coefficients,
		RSquared:     finite(m.RSquared),
		AIC:          finite(m.AIC),
		BIC:          finite(m.BIC),
		FullScale:    m.FullScale,
	})
}

// UnmarshalJSON null 还原为 -Inf
func (m *CalibrationModel) UnmarshalJSON(data []byte) error {
	var v calibrationModelJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = CalibrationModel{
		Degree:       v.Degree,
		Coefficients: v.Coefficients,
		RSquared:     orNegInf(v.RSquared),
		AIC:          orNegInf(v.AIC),
		BIC:          orNegInf(v.BIC),
		FullScale:    v.FullScale,
	}
	return nil
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNegInf(v *float64) float64 {
	if v == nil {
		return math.Inf(-1)
	}
	return *v
}
