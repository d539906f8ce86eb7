package models

// SpatialGrid 规则网格，两个坐标轴都严格递增
type SpatialGrid struct {
	DistanceAxis []float64
	DepthAxis    []float64
}

// Rows 行数(深度方向)
func (g SpatialGrid) Rows() int { return len(g.DepthAxis) }

// Cols 列数(距离方向)
func (g SpatialGrid) Cols() int { return len(g.DistanceAxis) }

// Cell 网格单元，Present 为 false 表示该处没有估计值
type Cell struct {
	Value   float64
	Present bool
}

// MoistureField 与 SpatialGrid 对齐的水分场，Cells[行=深度][列=距离]
type MoistureField struct {
	Grid  SpatialGrid
	Cells [][]Cell
}

// NewMoistureField 创建一个全部缺失的水分场
func NewMoistureField(grid SpatialGrid) MoistureField {
	cells := make([][]Cell, grid.Rows())
	for j := range cells {
		cells[j] = make([]Cell, grid.Cols())
	}
	return MoistureField{Grid: grid, Cells: cells}
}

// At 返回 (行 j, 列 i) 处的值
func (f MoistureField) At(j, i int) (float64, bool) {
	c := f.Cells[j][i]
	return c.Value, c.Present
}

// Set 写入一个有效值
func (f MoistureField) Set(j, i int, v float64) {
	f.Cells[j][i] = Cell{Value: v, Present: true}
}

// InclusionMask 测量区域掩膜，与水分场共享网格
type InclusionMask struct {
	Grid     SpatialGrid
	Included [][]bool
}

// Count 被选中的单元数
func (m InclusionMask) Count() int {
	n := 0
	for _, row := range m.Included {
		for _, in := range row {
			if in {
				n++
			}
		}
	}
	return n
}
