// Package geometry 定义测量体的形状、体积和网格上的圆形掩膜
package geometry

import (
	"fmt"
	"math"
	"strings"

	"go-soilwater/models"
)

// ParseShape 解析形状标签，"cone" 作为 "conic" 的别名
func ParseShape(tag string) (models.Shape, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case string(models.Cylinder):
		return models.Cylinder, nil
	case string(models.Cone), "cone":
		return models.Cone, nil
	case string(models.Sphere):
		return models.Sphere, nil
	}
	return "", fmt.Errorf("%w: invalid mode %q; choose 'cylinder', 'conic' or 'sphere'", models.ErrInvalidShape, tag)
}

// Volume 测量体体积，单位与半径、高度的单位一致(立方)
func Volume(spec models.VolumeSpec) (float64, error) {
	if !positive(spec.Radius) {
		return 0, models.Validationf("radius must be a positive number, got %v", spec.Radius)
	}
	switch spec.Shape {
	case models.Cylinder, models.Cone:
		if !positive(spec.Height) {
			return 0, models.Validationf("height must be a positive number, got %v", spec.Height)
		}
		v := math.Pi * spec.Radius * spec.Radius * spec.Height
		if spec.Shape == models.Cone {
			v /= 3
		}
		return v, nil
	case models.Sphere:
		return 4.0 / 3.0 * math.Pi * spec.Radius * spec.Radius * spec.Radius, nil
	}
	return 0, fmt.Errorf("%w: unknown shape %q", models.ErrInvalidShape, spec.Shape)
}

// CellVolume 单个网格单元乘以高度后的体积 dx·dy·height
func CellVolume(grid models.SpatialGrid, height float64) (float64, error) {
	if grid.Cols() < 2 || grid.Rows() < 2 {
		return 0, models.Validationf("grid needs at least 2 points per axis, got %dx%d", grid.Rows(), grid.Cols())
	}
	if !positive(height) {
		return 0, models.Validationf("height must be a positive number, got %v", height)
	}
	dx := grid.DistanceAxis[1] - grid.DistanceAxis[0]
	dy := grid.DepthAxis[1] - grid.DepthAxis[0]
	return dx * dy * height, nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
