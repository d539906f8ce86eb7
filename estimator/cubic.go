package estimator

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"go-soilwater/models"
)

// CubicName 确定性分片三次插值策略的名称
const CubicName = "cubic"

// barycentric 判断点是否在三角形内时允许的误差
const insideTolerance = 1e-9

// Cubic 在 Delaunay 三角网上用三次 Bézier 三角片插值。
// 顶点梯度由相邻顶点加权最小二乘估计，相邻三角片在公共边上连续；
// 不在任何三角形内(凸包外)的网格单元保持缺失。
type Cubic struct{}

func (Cubic) Name() string { return CubicName }

func (Cubic) Estimate(samples []models.CalibratedSample, grid models.SpatialGrid) (models.MoistureField, error) {
	pts, err := preparePoints(samples)
	if err != nil {
		return models.MoistureField{}, err
	}
	tris, err := triangulate(pts)
	if err != nil {
		return models.MoistureField{}, err
	}
	grads, err := vertexGradients(pts, tris)
	if err != nil {
		return models.MoistureField{}, err
	}

	patches := make([]bezierPatch, len(tris))
	for i, t := range tris {
		patches[i] = newBezierPatch(pts, grads, t)
	}

	field := models.NewMoistureField(grid)
	last := 0
	for j, z := range grid.DepthAxis {
		for i, d := range grid.DistanceAxis {
			// 相邻网格点通常落在同一个三角形里，先试上一次命中的
			if v, ok := patches[last].eval(d, z); ok {
				field.Set(j, i, v)
				continue
			}
			for k := range patches {
				if v, ok := patches[k].eval(d, z); ok {
					field.Set(j, i, v)
					last = k
					break
				}
			}
		}
	}
	return field, nil
}

type gradient struct{ gx, gy float64 }

// vertexGradients 用三角网里相邻顶点做加权(1/距离²)平面拟合，
// 邻点不足以确定梯度时退化为全部点的平面拟合
func vertexGradients(pts []point, tris []triangle) ([]gradient, error) {
	neighbors := make([]map[int]struct{}, len(pts))
	for i := range neighbors {
		neighbors[i] = make(map[int]struct{})
	}
	for _, t := range tris {
		for _, e := range [][2]int{{t.a, t.b}, {t.b, t.c}, {t.c, t.a}} {
			neighbors[e[0]][e[1]] = struct{}{}
			neighbors[e[1]][e[0]] = struct{}{}
		}
	}

	var global *gradient
	grads := make([]gradient, len(pts))
	for i, p := range pts {
		var sxx, sxy, syy, sxf, syf float64
		for k := range neighbors[i] {
			q := pts[k]
			dx, dy, df := q.x-p.x, q.y-p.y, q.v-p.v
			w := 1 / (dx*dx + dy*dy)
			sxx += w * dx * dx
			sxy += w * dx * dy
			syy += w * dy * dy
			sxf += w * dx * df
			syf += w * dy * df
		}
		det := sxx*syy - sxy*sxy
		if math.Abs(det) > 1e-12*(sxx*syy) && len(neighbors[i]) >= 2 {
			grads[i] = gradient{
				gx: (syy*sxf - sxy*syf) / det,
				gy: (sxx*syf - sxy*sxf) / det,
			}
			continue
		}
		if global == nil {
			g, err := planeGradient(pts)
			if err != nil {
				return nil, err
			}
			global = &g
		}
		grads[i] = *global
	}
	return grads, nil
}

// planeGradient 全部点的最小二乘平面 v = c + gx·x + gy·y
func planeGradient(pts []point) (gradient, error) {
	a := mat.NewDense(len(pts), 3, nil)
	b := mat.NewVecDense(len(pts), nil)
	for i, p := range pts {
		a.Set(i, 0, 1)
		a.Set(i, 1, p.x)
		a.Set(i, 2, p.y)
		b.SetVec(i, p.v)
	}
	var c mat.VecDense
	if err := c.SolveVec(a, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return gradient{}, fmt.Errorf("%w: plane fit failed: %v", models.ErrEstimation, err)
		}
	}
	return gradient{gx: c.AtVec(1), gy: c.AtVec(2)}, nil
}

// bezierPatch 三角形上的三次 Bézier 片，控制点 b[i][j][k] 对应重心坐标幂次
type bezierPatch struct {
	x0, y0 float64
	// 逆仿射矩阵，把 (x-x0, y-y0) 映射到重心坐标 (v, w)
	m11, m12, m21, m22 float64

	b300, b030, b003 float64
	b210, b201       float64
	b120, b021       float64
	b102, b012       float64
	b111             float64
}

func newBezierPatch(pts []point, grads []gradient, t triangle) bezierPatch {
	p0, p1, p2 := pts[t.a], pts[t.b], pts[t.c]
	g0, g1, g2 := grads[t.a], grads[t.b], grads[t.c]
	dir := func(g gradient, from, to point) float64 {
		return (g.gx*(to.x-from.x) + g.gy*(to.y-from.y)) / 3
	}

	bp := bezierPatch{
		x0: p0.x, y0: p0.y,
		b300: p0.v, b030: p1.v, b003: p2.v,
		b210: p0.v + dir(g0, p0, p1),
		b201: p0.v + dir(g0, p0, p2),
		b120: p1.v + dir(g1, p1, p0),
		b021: p1.v + dir(g1, p1, p2),
		b102: p2.v + dir(g2, p2, p0),
		b012: p2.v + dir(g2, p2, p1),
	}
	e := (bp.b210 + bp.b201 + bp.b120 + bp.b021 + bp.b102 + bp.b012) / 6
	v := (p0.v + p1.v + p2.v) / 3
	bp.b111 = e + (e-v)/2

	ax, ay := p1.x-p0.x, p1.y-p0.y
	bx, by := p2.x-p0.x, p2.y-p0.y
	det := ax*by - ay*bx
	bp.m11, bp.m12 = by/det, -bx/det
	bp.m21, bp.m22 = -ay/det, ax/det
	return bp
}

// eval 点在三角形内时返回插值结果
func (bp bezierPatch) eval(x, y float64) (float64, bool) {
	dx, dy := x-bp.x0, y-bp.y0
	v := bp.m11*dx + bp.m12*dy
	w := bp.m21*dx + bp.m22*dy
	u := 1 - v - w
	if u < -insideTolerance || v < -insideTolerance || w < -insideTolerance {
		return 0, false
	}
	return u*u*u*bp.b300 + v*v*v*bp.b030 + w*w*w*bp.b003 +
		3*u*u*v*bp.b210 + 3*u*u*w*bp.b201 +
		3*u*v*v*bp.b120 + 3*v*v*w*bp.b021 +
		3*u*w*w*bp.b102 + 3*v*w*w*bp.b012 +
		6*u*v*w*bp.b111, true
}
