// Package calibration 把传感器原始读数拟合成水分百分比曲线，
// 并用 AIC/BIC 选择多项式次数。
package calibration

import (
	"fmt"
	"math"

	"go-soilwater/models"
)

// Degrees 候选多项式次数，按升序逐个尝试
var Degrees = []int{1, 2, 3, 4}

// rssFloor 相对 SS_tot 的舍入误差下限，低于它的 RSS 视为 0
const rssFloor = 1e-12

// SensorDiff 计算 fullScale - raw
func SensorDiff(raw []float64, fullScale int) []float64 {
	diff := make([]float64, len(raw))
	for i, r := range raw {
		diff[i] = float64(fullScale) - r
	}
	return diff
}

// Fit 拟合标定曲线。
//
// 次数按升序尝试，只有当 AIC 和 BIC 同时严格低于目前最好的值时才采用该次数；
// 这是顺序贪心规则，不保证全局最小。
func Fit(raw, moisture []float64, fullScale int) (models.CalibrationModel, error) {
	if len(raw) != len(moisture) {
		return models.CalibrationModel{}, models.Validationf(
			"sensor_readings (%d) and moisture_percentages (%d) differ in length", len(raw), len(moisture))
	}
	if fullScale <= 0 {
		return models.CalibrationModel{}, models.Validationf("sensor_full_scale must be > 0")
	}
	n := len(raw)
	if n < 2 {
		return models.CalibrationModel{}, fmt.Errorf("%w: need at least 2 samples, got %d", models.ErrCalibration, n)
	}
	for i := 0; i < n; i++ {
		if !isFinite(raw[i]) || !isFinite(moisture[i]) {
			return models.CalibrationModel{}, models.Validationf("sample %d is not finite", i)
		}
	}

	mean := 0.0
	for _, y := range moisture {
		mean += y
	}
	mean /= float64(n)
	ssTot := 0.0
	for _, y := range moisture {
		ssTot += (y - mean) * (y - mean)
	}
	if ssTot == 0 {
		return models.CalibrationModel{}, fmt.Errorf("%w: moisture_percentages have zero variance", models.ErrCalibration)
	}

	x := SensorDiff(raw, fullScale)
	bestAIC, bestBIC := math.Inf(1), math.Inf(1)
	var best *models.CalibrationModel
	for _, degree := range Degrees {
		coeffs, err := polyfit(x, moisture, degree)
		if err != nil {
			continue
		}
		rss := 0.0
		for i := range x {
			r := moisture[i] - Evaluate(coeffs, x[i])
			rss += r * r
		}
		if rss < rssFloor*ssTot {
			rss = 0
		}

		k := float64(degree + 1)
		logLik := float64(n) * math.Log(rss/float64(n))
		aic := logLik + 2*k
		bic := logLik + k*math.Log(float64(n))

		if aic < bestAIC && bic < bestBIC {
			bestAIC, bestBIC = aic, bic
			best = &models.CalibrationModel{
				Degree:       degree,
				Coefficients: coeffs,
				RSquared:     1 - rss/ssTot,
				AIC:          aic,
				BIC:          bic,
				FullScale:    fullScale,
			}
		}
	}
	if best == nil {
		return models.CalibrationModel{}, fmt.Errorf("%w: no candidate degree satisfied the AIC/BIC selection rule", models.ErrCalibration)
	}
	return *best, nil
}

// CalibrateSamples 用曲线把原始读数转换成水分值
func CalibrateSamples(c Curve, samples []models.SensorSample) ([]models.CalibratedSample, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	out := make([]models.CalibratedSample, len(samples))
	for i, s := range samples {
		m := Apply(c, s.RawValue)
		if !isFinite(m) {
			return nil, fmt.Errorf("%w: calibrated moisture of sample %d is not finite", models.ErrCalibration, i)
		}
		out[i] = models.CalibratedSample{SensorSample: s, Moisture: m}
	}
	return out, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
