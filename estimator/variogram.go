package estimator

import "math"

// variogramLags 经验变差函数的分箱数
const variogramLags = 6

// LinearVariogram γ(h) = Slope·h + Nugget
type LinearVariogram struct {
	Slope  float64
	Nugget float64
}

// Gamma 距离 h 处的半方差
func (v LinearVariogram) Gamma(h float64) float64 {
	return v.Slope*h + v.Nugget
}

// fitLinearVariogram 对分箱后的经验半方差做非负约束的最小二乘拟合
func fitLinearVariogram(pts []point) LinearVariogram {
	var ds, gs []float64
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			dv := pts[i].v - pts[j].v
			ds = append(ds, math.Hypot(pts[i].x-pts[j].x, pts[i].y-pts[j].y))
			gs = append(gs, 0.5*dv*dv)
		}
	}
	lags, semis := binSemivariance(ds, gs)
	return fitNonNegativeLine(lags, semis)
}

// binSemivariance 把点对按距离等宽分箱，返回非空箱内距离和半方差的均值。
// 各箱左闭右开，最后一箱两端都闭合，最远的点对也参与拟合。
func binSemivariance(ds, gs []float64) ([]float64, []float64) {
	dmin, dmax := ds[0], ds[0]
	for _, d := range ds[1:] {
		dmin, dmax = min(dmin, d), max(dmax, d)
	}
	if dmin == dmax {
		return []float64{dmin}, []float64{mean(gs)}
	}

	width := (dmax - dmin) / variogramLags
	var lags, semis []float64
	for n := 0; n < variogramLags; n++ {
		lo, hi := dmin+float64(n)*width, dmin+float64(n+1)*width
		last := n == variogramLags-1
		if last {
			hi = dmax
		}
		var sd, sg float64
		count := 0
		for k, d := range ds {
			if d >= lo && (d < hi || last && d <= hi) {
				sd += d
				sg += gs[k]
				count++
			}
		}
		if count > 0 {
			lags = append(lags, sd/float64(count))
			semis = append(semis, sg/float64(count))
		}
	}
	return lags, semis
}

// fitNonNegativeLine y = s·x + n 的最小二乘解，约束 s >= 0, n >= 0
func fitNonNegativeLine(xs, ys []float64) LinearVariogram {
	if len(xs) == 1 {
		if xs[0] > 0 {
			return LinearVariogram{Slope: ys[0] / xs[0]}
		}
		return LinearVariogram{Nugget: ys[0]}
	}
	mx, my := mean(xs), mean(ys)
	var sxx, sxy float64
	for i := range xs {
		sxx += (xs[i] - mx) * (xs[i] - mx)
		sxy += (xs[i] - mx) * (ys[i] - my)
	}
	slope := 0.0
	if sxx > 0 {
		slope = sxy / sxx
	}
	nugget := my - slope*mx

	switch {
	case slope < 0:
		return LinearVariogram{Nugget: max(my, 0)}
	case nugget < 0:
		var xx, xy float64
		for i := range xs {
			xx += xs[i] * xs[i]
			xy += xs[i] * ys[i]
		}
		return LinearVariogram{Slope: xy / xx}
	}
	return LinearVariogram{Slope: slope, Nugget: nugget}
}

func mean(vs []float64) float64 {
	s := 0.0
	for _, v := range vs {
		s += v
	}
	return s / float64(len(vs))
}
