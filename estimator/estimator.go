// Package estimator 根据离散的已标定读数重建规则网格上的水分场。
//
// 两种策略实现同一个 Strategy 接口：
//   - cubic:   Delaunay 三角网上的分片三次插值，凸包外的单元缺失
//   - kriging: 线性变差函数的普通克里金，整个网格都有值(包括凸包外的外推)
package estimator

import (
	"fmt"
	"sort"

	"go-soilwater/models"
)

// DefaultResolution 每个坐标轴的默认网格点数
const DefaultResolution = 50

// Strategy 水分场重建策略
type Strategy interface {
	Name() string
	Estimate(samples []models.CalibratedSample, grid models.SpatialGrid) (models.MoistureField, error)
}

var strategies = map[string]Strategy{
	CubicName:   Cubic{},
	KrigingName: Kriging{},
}

// Lookup 按名称查找策略
func Lookup(name string) (Strategy, error) {
	s, ok := strategies[name]
	if !ok {
		return nil, models.Validationf("unknown estimation strategy %q (available: %v)", name, Names())
	}
	return s, nil
}

// Names 已注册的策略名称
func Names() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewGrid 在读数的 [min, max] 范围内生成 resolution×resolution 的网格
func NewGrid(samples []models.CalibratedSample, resolution int) (models.SpatialGrid, error) {
	if resolution < 2 {
		return models.SpatialGrid{}, models.Validationf("grid resolution must be >= 2, got %d", resolution)
	}
	if len(samples) == 0 {
		return models.SpatialGrid{}, fmt.Errorf("%w: no samples", models.ErrEstimation)
	}
	minD, maxD := samples[0].Distance, samples[0].Distance
	minZ, maxZ := samples[0].Depth, samples[0].Depth
	for _, s := range samples[1:] {
		minD, maxD = min(minD, s.Distance), max(maxD, s.Distance)
		minZ, maxZ = min(minZ, s.Depth), max(maxZ, s.Depth)
	}
	if minD == maxD {
		return models.SpatialGrid{}, fmt.Errorf("%w: all samples share distance %g", models.ErrEstimation, minD)
	}
	if minZ == maxZ {
		return models.SpatialGrid{}, fmt.Errorf("%w: all samples share depth %g", models.ErrEstimation, minZ)
	}
	return models.SpatialGrid{
		DistanceAxis: linspace(minD, maxD, resolution),
		DepthAxis:    linspace(minZ, maxZ, resolution),
	}, nil
}

// Estimate 生成网格并用给定策略重建水分场
func Estimate(s Strategy, samples []models.CalibratedSample, resolution int) (models.SpatialGrid, models.MoistureField, error) {
	grid, err := NewGrid(samples, resolution)
	if err != nil {
		return models.SpatialGrid{}, models.MoistureField{}, err
	}
	field, err := s.Estimate(samples, grid)
	if err != nil {
		return models.SpatialGrid{}, models.MoistureField{}, err
	}
	return grid, field, nil
}

func linspace(lo, hi float64, n int) []float64 {
	axis := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range axis {
		axis[i] = lo + float64(i)*step
	}
	axis[n-1] = hi
	return axis
}
