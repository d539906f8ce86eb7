package geometry

import "go-soilwater/models"

// Mask 圆形掩膜：d² + z² <= r² 的网格点被选中(含边界)。
// 坐标直接取轴上的原始值，以原点为圆心。
func Mask(grid models.SpatialGrid, radius float64) (models.InclusionMask, error) {
	if !positive(radius) {
		return models.InclusionMask{}, models.Validationf("radius must be a positive number, got %v", radius)
	}
	r2 := radius * radius
	included := make([][]bool, grid.Rows())
	for j, z := range grid.DepthAxis {
		included[j] = make([]bool, grid.Cols())
		for i, d := range grid.DistanceAxis {
			included[j][i] = d*d+z*z <= r2
		}
	}
	return models.InclusionMask{Grid: grid, Included: included}, nil
}
