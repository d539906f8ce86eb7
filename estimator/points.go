package estimator

import (
	"fmt"
	"math"
	"sort"

	"go-soilwater/models"
)

type point struct {
	x, y float64 // x=distance, y=depth
	v    float64
}

// preparePoints 合并坐标相同的读数(取平均值)，并检查至少有 3 个不共线的点
func preparePoints(samples []models.CalibratedSample) ([]point, error) {
	type key struct{ x, y float64 }
	sums := make(map[key]*struct {
		sum float64
		n   int
	})
	order := make([]key, 0, len(samples))
	for i, s := range samples {
		if math.IsNaN(s.Moisture) || math.IsInf(s.Moisture, 0) {
			return nil, fmt.Errorf("%w: moisture of sample %d is not finite", models.ErrEstimation, i)
		}
		k := key{s.Distance, s.Depth}
		acc, ok := sums[k]
		if !ok {
			acc = &struct {
				sum float64
				n   int
			}{}
			sums[k] = acc
			order = append(order, k)
		}
		acc.sum += s.Moisture
		acc.n++
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].x != order[j].x {
			return order[i].x < order[j].x
		}
		return order[i].y < order[j].y
	})

	pts := make([]point, len(order))
	for i, k := range order {
		acc := sums[k]
		pts[i] = point{x: k.x, y: k.y, v: acc.sum / float64(acc.n)}
	}
	if len(pts) < 3 {
		return nil, fmt.Errorf("%w: need at least 3 distinct sample locations, got %d", models.ErrEstimation, len(pts))
	}
	if collinear(pts) {
		return nil, fmt.Errorf("%w: sample locations are collinear", models.ErrEstimation)
	}
	return pts, nil
}

// collinear 所有点都落在同一条直线上
func collinear(pts []point) bool {
	a := pts[0]
	// 取离 a 最远的点作为方向，避免近距离点带来的误差
	far, best := a, 0.0
	for _, p := range pts[1:] {
		if d := math.Hypot(p.x-a.x, p.y-a.y); d > best {
			far, best = p, d
		}
	}
	if best == 0 {
		return true
	}
	for _, p := range pts {
		cross := (far.x-a.x)*(p.y-a.y) - (far.y-a.y)*(p.x-a.x)
		if math.Abs(cross) > 1e-12*best*best {
			return false
		}
	}
	return true
}
