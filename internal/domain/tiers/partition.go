package tiers

import (
	"math"
)

// point is one player in feature space.
type point struct {
	value      float64
	dispersion float64
}

// prefix holds running sums so any contiguous run's SSE costs O(1).
type prefix struct {
	v, v2, d, d2 []float64
}

func newPrefix(pts []point) prefix {
	n := len(pts)
	p := prefix{
		v: make([]float64, n+1), v2: make([]float64, n+1),
		d: make([]float64, n+1), d2: make([]float64, n+1),
	}
	for i, pt := range pts {
		p.v[i+1] = p.v[i] + pt.value
		p.v2[i+1] = p.v2[i] + pt.value*pt.value
		p.d[i+1] = p.d[i] + pt.dispersion
		p.d2[i+1] = p.d2[i] + pt.dispersion*pt.dispersion
	}
	return p
}

// sse is the within-run sum of squared deviations of points [i, j).
func (p prefix) sse(i, j int) float64 {
	m := float64(j - i)
	sv := p.v[j] - p.v[i]
	sd := p.d[j] - p.d[i]
	out := (p.v2[j] - p.v2[i]) - sv*sv/m + (p.d2[j] - p.d2[i]) - sd*sd/m
	if out < 0 {
		return 0
	}
	return out
}

// paramsPerTier counts the free parameters a tier adds to the BIC penalty:
// a centroid coordinate per feature plus the tier's share of players.
const paramsPerTier = 3

// partition splits rank-ordered points into contiguous runs and returns the
// start index of every run. For each K in [1, maxK] it finds the split with the
// least within-run SSE by dynamic programming, then keeps the K with the lowest
// BIC-style score. Ties resolve to fewer tiers and earlier split points.
func partition(pts []point, maxK int, varianceFloor float64) ([]int, error) {
	n := len(pts)
	if n < 2 {
		return []int{0}, ErrDegenerateInput
	}
	if allSame(pts) {
		return []int{0}, ErrDegenerateInput
	}
	if maxK > n {
		maxK = n
	}

	pre := newPrefix(pts)
	inf := math.Inf(1)

	// cost[k][j]: best SSE of the first j points in k runs; cut[k][j]: start of the last run.
	cost := make([][]float64, maxK+1)
	cut := make([][]int, maxK+1)
	for k := range cost {
		cost[k] = make([]float64, n+1)
		cut[k] = make([]int, n+1)
		for j := range cost[k] {
			cost[k][j] = inf
		}
	}
	cost[0][0] = 0
	for k := 1; k <= maxK; k++ {
		for j := k; j <= n; j++ {
			for i := k - 1; i < j; i++ {
				if cost[k-1][i] == inf {
					continue
				}
				c := cost[k-1][i] + pre.sse(i, j)
				if c < cost[k][j] {
					cost[k][j] = c
					cut[k][j] = i
				}
			}
		}
	}

	bestK, bestScore := 1, inf
	logN := math.Log(float64(n))
	for k := 1; k <= maxK; k++ {
		variance := math.Max(cost[k][n]/float64(n), varianceFloor)
		score := float64(n)*math.Log(variance) + float64(paramsPerTier*k)*logN
		if score < bestScore-1e-9 {
			bestK, bestScore = k, score
		}
	}

	starts := make([]int, bestK)
	j := n
	for k := bestK; k >= 1; k-- {
		starts[k-1] = cut[k][j]
		j = cut[k][j]
	}
	return starts, nil
}

func allSame(pts []point) bool {
	for _, p := range pts[1:] {
		if p != pts[0] {
			return false
		}
	}
	return true
}
