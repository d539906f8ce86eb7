package calibration

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"go-soilwater/models"
)

// Curve 标定曲线：系数高次项在前。
// FullScale > 0 时在 FullScale-raw 处求值(拟合时的约定)，否则直接在 raw 处求值。
type Curve struct {
	Coefficients []float64 `json:"coefficients"`
	FullScale    int       `json:"sensor_full_scale,omitempty"`
}

// DefaultCoefficients 默认三次标定曲线，每次返回新的切片
func DefaultCoefficients() []float64 {
	return []float64{4.197e-7, -4.763e-4, 0.2291, 2.585}
}

// DefaultCurve 直接作用于原始读数的默认曲线
func DefaultCurve() Curve {
	return Curve{Coefficients: DefaultCoefficients()}
}

// CurveOf 把拟合结果转换成可求值的曲线
func CurveOf(m models.CalibrationModel) Curve {
	return Curve{
		Coefficients: append([]float64(nil), m.Coefficients...),
		FullScale:    m.FullScale,
	}
}

// Degree 多项式次数
func (c Curve) Degree() int {
	return len(c.Coefficients) - 1
}

// Validate 检查系数是否可用
func (c Curve) Validate() error {
	if len(c.Coefficients) == 0 {
		return models.Validationf("calibration_coeffs is empty")
	}
	for i, v := range c.Coefficients {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return models.Validationf("calibration_coeffs[%d] is not finite", i)
		}
	}
	if c.FullScale < 0 {
		return models.Validationf("sensor_full_scale must be > 0")
	}
	return nil
}

// Apply 计算原始读数对应的水分百分比
func Apply(c Curve, raw float64) float64 {
	x := raw
	if c.FullScale > 0 {
		x = float64(c.FullScale) - raw
	}
	return Evaluate(c.Coefficients, x)
}

// Evaluate 计算 Σ coeff[i]·x^(degree-i)
func Evaluate(coeffs []float64, x float64) float64 {
	y := 0.0
	for _, c := range coeffs {
		y = y*x + c
	}
	return y
}

// polyfit 最小二乘拟合 x → y 的 degree 次多项式。
// 和 numpy.polyfit 一样先按列范数缩放范德蒙矩阵；点数不足时得到最小范数解。
func polyfit(x, y []float64, degree int) ([]float64, error) {
	n := len(x)
	cols := degree + 1
	a := mat.NewDense(n, cols, nil)
	for i, xi := range x {
		for j := 0; j < cols; j++ {
			a.Set(i, j, math.Pow(xi, float64(degree-j)))
		}
	}

	scale := make([]float64, cols)
	for j := 0; j < cols; j++ {
		s := floats.Norm(mat.Col(nil, j, a), 2)
		if s == 0 {
			s = 1
		}
		scale[j] = s
		for i := 0; i < n; i++ {
			a.Set(i, j, a.At(i, j)/s)
		}
	}

	var c mat.VecDense
	if err := c.SolveVec(a, mat.NewVecDense(n, append([]float64(nil), y...))); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, fmt.Errorf("degree %d: %v", degree, err)
		}
		// 病态但有解，与 polyfit 的 RankWarning 一样继续使用
	}

	coeffs := make([]float64, cols)
	for j := 0; j < cols; j++ {
		coeffs[j] = c.AtVec(j) / scale[j]
	}
	return coeffs, nil
}
