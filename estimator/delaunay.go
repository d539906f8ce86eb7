package estimator

import (
	"fmt"
	"math"

	"go-soilwater/models"
)

// triangle 三角形，顶点为 pts 的下标，逆时针
type triangle struct {
	a, b, c int
}

// opposite 不在边 e 上的那个顶点
func (t triangle) opposite(e edge) int {
	for _, v := range [3]int{t.a, t.b, t.c} {
		if v != e.a && v != e.b {
			return v
		}
	}
	return -1
}

func (t triangle) edges() [3]edge {
	return [3]edge{newEdge(t.a, t.b), newEdge(t.b, t.c), newEdge(t.c, t.a)}
}

type edge struct{ a, b int }

func newEdge(a, b int) edge {
	if a > b {
		a, b = b, a
	}
	return edge{a, b}
}

// triangulate 构造覆盖整个凸包的 Delaunay 三角网。
// pts 必须已按 (x, y) 字典序排好(preparePoints 保证)，这样每个新点都在已有凸包之外：
// 先把新点连到它能看见的凸包边上，全部插入后再做 Lawson 翻边。
func triangulate(pts []point) ([]triangle, error) {
	n := len(pts)

	// 开头可能有一串共线点，找到第一个不共线的点
	k := 2
	for k < n && orient(pts, 0, 1, k) == 0 {
		k++
	}
	if k == n {
		return nil, fmt.Errorf("%w: sample locations are collinear", models.ErrEstimation)
	}

	tris := make([]triangle, 0, 2*n)
	for j := 0; j+1 < k; j++ {
		tris = append(tris, makeTriangle(pts, j, j+1, k))
	}

	// hull 逆时针
	hull := make([]int, 0, n)
	if orient(pts, 0, 1, k) > 0 {
		for j := 0; j < k; j++ {
			hull = append(hull, j)
		}
	} else {
		for j := k - 1; j >= 0; j-- {
			hull = append(hull, j)
		}
	}
	hull = append(hull, k)

	for i := k + 1; i < n; i++ {
		m := len(hull)
		visible := make([]bool, m)
		count := 0
		for e := 0; e < m; e++ {
			if orient(pts, hull[e], hull[(e+1)%m], i) < 0 {
				visible[e] = true
				count++
			}
		}
		if count == 0 || count == m {
			return nil, fmt.Errorf("%w: cannot insert sample (%v, %v) into triangulation", models.ErrEstimation, pts[i].x, pts[i].y)
		}

		start := 0
		for !visible[start] || visible[(start-1+m)%m] {
			start++
		}
		end := start
		for visible[(end+1)%m] {
			end = (end + 1) % m
		}
		for e := start; ; e = (e + 1) % m {
			tris = append(tris, makeTriangle(pts, hull[e], hull[(e+1)%m], i))
			if e == end {
				break
			}
		}

		// hull[start+1..end] 被新点挡住，不再是凸包顶点
		next := make([]int, 0, m+1)
		next = append(next, i)
		for e := (end + 1) % m; ; e = (e + 1) % m {
			next = append(next, hull[e])
			if e == start {
				break
			}
		}
		hull = next
	}

	legalize(pts, tris)

	out := tris[:0]
	for _, t := range tris {
		if orient(pts, t.a, t.b, t.c) > 0 {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: triangulation of %d points is empty", models.ErrEstimation, n)
	}
	return out, nil
}

// legalize 翻转不满足空外接圆条件的内部边，直到没有可翻的边。
// 边按三角形顺序遍历，结果与 map 的迭代顺序无关。
func legalize(pts []point, tris []triangle) {
	maxPasses := len(pts)*len(pts) + 16
	for pass := 0; pass < maxPasses; pass++ {
		owners := make(map[edge][]int, 3*len(tris))
		for k, t := range tris {
			for _, e := range t.edges() {
				owners[e] = append(owners[e], k)
			}
		}

		touched := make([]bool, len(tris))
		flipped := false
		for k := range tris {
			for _, e := range tris[k].edges() {
				ks := owners[e]
				if len(ks) != 2 || ks[0] != k || touched[ks[0]] || touched[ks[1]] {
					continue
				}
				t1, t2 := tris[ks[0]], tris[ks[1]]
				r, s := t1.opposite(e), t2.opposite(e)
				if !inCircle(pts, t1, s) {
					continue
				}
				// 四边形必须是凸的才能翻
				if orient(pts, r, s, e.a)*orient(pts, r, s, e.b) >= 0 {
					continue
				}
				tris[ks[0]] = makeTriangle(pts, r, e.a, s)
				tris[ks[1]] = makeTriangle(pts, r, s, e.b)
				touched[ks[0]], touched[ks[1]] = true, true
				flipped = true
			}
		}
		if !flipped {
			return
		}
	}
}

func orient(pts []point, a, b, c int) float64 {
	return (pts[b].x-pts[a].x)*(pts[c].y-pts[a].y) - (pts[b].y-pts[a].y)*(pts[c].x-pts[a].x)
}

// inCircle 点 d 严格落在逆时针三角形 t 的外接圆内，共圆不算
func inCircle(pts []point, t triangle, d int) bool {
	px, py := pts[d].x, pts[d].y
	adx, ady := pts[t.a].x-px, pts[t.a].y-py
	bdx, bdy := pts[t.b].x-px, pts[t.b].y-py
	cdx, cdy := pts[t.c].x-px, pts[t.c].y-py

	alift := adx*adx + ady*ady
	blift := bdx*bdx + bdy*bdy
	clift := cdx*cdx + cdy*cdy

	det := alift*(bdx*cdy-bdy*cdx) + blift*(cdx*ady-cdy*adx) + clift*(adx*bdy-ady*bdx)
	scale := alift*(math.Abs(bdx*cdy)+math.Abs(bdy*cdx)) +
		blift*(math.Abs(cdx*ady)+math.Abs(cdy*adx)) +
		clift*(math.Abs(adx*bdy)+math.Abs(ady*bdx))
	return det > 1e-10*scale
}

// makeTriangle 按逆时针顺序存储顶点
func makeTriangle(pts []point, a, b, c int) triangle {
	if orient(pts, a, b, c) < 0 {
		b, c = c, b
	}
	return triangle{a: a, b: b, c: c}
}
