package estimator

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"go-soilwater/models"
)

// KrigingName 普通克里金策略的名称
const KrigingName = "kriging"

// exactDistance 小于该距离的网格点直接取样本值
const exactDistance = 1e-10

// Kriging 线性变差函数的普通克里金。
// 没有凸包限制，网格上每个点都有估计值，凸包外是外推结果。
type Kriging struct{}

func (Kriging) Name() string { return KrigingName }

func (Kriging) Estimate(samples []models.CalibratedSample, grid models.SpatialGrid) (models.MoistureField, error) {
	pts, err := preparePoints(samples)
	if err != nil {
		return models.MoistureField{}, err
	}
	vg := fitLinearVariogram(pts)
	field := models.NewMoistureField(grid)

	if vg.Slope == 0 && vg.Nugget == 0 {
		// 半方差处处为 0 说明所有样本值相同
		for j := range grid.DepthAxis {
			for i := range grid.DistanceAxis {
				field.Set(j, i, pts[0].v)
			}
		}
		return field, nil
	}

	n := len(pts)
	a := mat.NewDense(n+1, n+1, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j {
				a.Set(i, j, -vg.Gamma(math.Hypot(pts[i].x-pts[j].x, pts[i].y-pts[j].y)))
			}
		}
		a.Set(i, n, 1)
		a.Set(n, i, 1)
	}

	var lu mat.LU
	lu.Factorize(a)
	if lu.Det() == 0 || math.IsInf(lu.Cond(), 1) {
		return models.MoistureField{}, fmt.Errorf("%w: kriging system is singular", models.ErrEstimation)
	}

	b := mat.NewVecDense(n+1, nil)
	w := mat.NewVecDense(n+1, nil)
	for j, z := range grid.DepthAxis {
		for i, d := range grid.DistanceAxis {
			exact := -1
			for k, p := range pts {
				h := math.Hypot(d-p.x, z-p.y)
				if h <= exactDistance {
					exact = k
					break
				}
				b.SetVec(k, -vg.Gamma(h))
			}
			if exact >= 0 {
				field.Set(j, i, pts[exact].v)
				continue
			}
			b.SetVec(n, 1)

			if err := lu.SolveVecTo(w, false, b); err != nil {
				var cond mat.Condition
				if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
					return models.MoistureField{}, fmt.Errorf("%w: kriging solve failed: %v", models.ErrEstimation, err)
				}
			}
			est := 0.0
			for k, p := range pts {
				est += w.AtVec(k) * p.v
			}
			field.Set(j, i, est)
		}
	}
	return field, nil
}
