// Package aggregate 把掩膜内的水分场汇总成一个标量结果。
// 水分场里的值统一是百分数。
package aggregate

import (
	"fmt"

	"go-soilwater/geometry"
	"go-soilwater/models"
)

// DefaultBulkDensity 典型土壤容重 g/cm³
const DefaultBulkDensity = 1.3

// MeanPercentage 掩膜内有效单元的平均水分百分数
func MeanPercentage(field models.MoistureField, mask models.InclusionMask) (float64, error) {
	sum, n, err := collect(field, mask, 1)
	if err != nil {
		return 0, err
	}
	return sum / float64(n), nil
}

// AverageVolume 平均水分 / 100 × 容重 × 体积 / 1000，单位升
func AverageVolume(field models.MoistureField, mask models.InclusionMask, spec models.VolumeSpec, bulkDensity float64) (float64, error) {
	if !(bulkDensity > 0) {
		return 0, models.Validationf("bulk density must be positive, got %v", bulkDensity)
	}
	avg, err := MeanPercentage(field, mask)
	if err != nil {
		return 0, err
	}
	volume, err := geometry.Volume(spec)
	if err != nil {
		return 0, err
	}
	weight := avg / 100 * bulkDensity * volume
	return weight / 1000, nil
}

// IntegratedVolume 掩膜内有效单元的 水分 × dx·dy·height 之和
func IntegratedVolume(field models.MoistureField, mask models.InclusionMask, height float64) (float64, error) {
	element, err := geometry.CellVolume(field.Grid, height)
	if err != nil {
		return 0, err
	}
	sum, _, err := collect(field, mask, element)
	return sum, err
}

// collect 累加掩膜内有效单元的 value×weight，返回参与的单元数
func collect(field models.MoistureField, mask models.InclusionMask, weight float64) (float64, int, error) {
	if err := sameShape(field, mask); err != nil {
		return 0, 0, err
	}
	if mask.Count() == 0 {
		return 0, 0, fmt.Errorf("%w: no grid cell lies inside the measurement radius", models.ErrEmptyRegion)
	}
	sum, n := 0.0, 0
	for j, row := range mask.Included {
		for i, in := range row {
			if !in {
				continue
			}
			if v, ok := field.At(j, i); ok {
				sum += v * weight
				n++
			}
		}
	}
	if n == 0 {
		return 0, 0, fmt.Errorf("%w: every selected cell is missing an estimate", models.ErrEmptyRegion)
	}
	return sum, n, nil
}

func sameShape(field models.MoistureField, mask models.InclusionMask) error {
	if len(field.Cells) != len(mask.Included) {
		return models.Validationf("mask has %d rows, field has %d", len(mask.Included), len(field.Cells))
	}
	for j := range field.Cells {
		if len(field.Cells[j]) != len(mask.Included[j]) {
			return models.Validationf("mask row %d has %d columns, field has %d", j, len(mask.Included[j]), len(field.Cells[j]))
		}
	}
	if !sameAxis(field.Grid.DistanceAxis, mask.Grid.DistanceAxis) || !sameAxis(field.Grid.DepthAxis, mask.Grid.DepthAxis) {
		return models.Validationf("mask and field are built on different grids")
	}
	return nil
}

func sameAxis(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
