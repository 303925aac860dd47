package outliers

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/sarimax/regressors"
)

// madScale turns a median absolute deviation into a normal standard deviation.
const madScale = 1.483

// candidate is one (type, position) test on the current residuals.
type candidate struct {
	typ   regressors.OutlierType
	index int
	omega float64
	tau   float64
}

// better orders candidates: larger |tau|, then earlier position, then AO < LS < TC.
func (c candidate) better(o candidate) bool {
	a, b := math.Abs(c.tau), math.Abs(o.tau)
	if a != b {
		return a > b
	}
	if c.index != o.index {
		return c.index < o.index
	}
	return c.typ < o.typ
}

// patterns holds, per type, the coefficients of pi(B)xi(B): the residual
// response to a unit intervention k steps after its onset.
type patterns struct {
	coef  map[regressors.OutlierType][]float64
	sumSq map[regressors.OutlierType][]float64 // sumSq[typ][k] = sum of coef^2 up to k
}

func newPatterns(pi []float64, types []regressors.OutlierType, delta float64) *patterns {
	p := &patterns{
		coef:  make(map[regressors.OutlierType][]float64, len(types)),
		sumSq: make(map[regressors.OutlierType][]float64, len(types)),
	}
	n := len(pi)
	for _, typ := range types {
		c := make([]float64, n)
		for k := 0; k < n; k++ {
			switch typ {
			case regressors.AdditiveOutlier:
				c[k] = pi[k]
			case regressors.LevelShift:
				c[k] = pi[k]
				if k > 0 {
					c[k] += c[k-1]
				}
			case regressors.TransientChange:
				c[k] = pi[k]
				if k > 0 {
					c[k] += delta * c[k-1]
				}
			}
		}
		ss := make([]float64, n)
		acc := 0.0
		for k, v := range c {
			acc += v * v
			ss[k] = acc
		}
		p.coef[typ] = c
		p.sumSq[typ] = ss
	}
	return p
}

// test computes the Chen-Liu statistic for an intervention of type typ at
// index on residuals resid.
func (p *patterns) test(typ regressors.OutlierType, index int, resid []float64, sigma float64) (candidate, bool) {
	c := p.coef[typ]
	steps := len(resid) - index
	sxx := p.sumSq[typ][steps-1]
	if !(sxx > 0) {
		return candidate{}, false
	}
	sxe := 0.0
	for k := 0; k < steps; k++ {
		sxe += c[k] * resid[index+k]
	}
	omega := sxe / sxx
	return candidate{
		typ:   typ,
		index: index,
		omega: omega,
		tau:   omega * math.Sqrt(sxx) / sigma,
	}, true
}

// remove subtracts the effect of an accepted intervention from resid.
func (p *patterns) remove(c candidate, resid []float64) {
	coef := p.coef[c.typ]
	for k := 0; c.index+k < len(resid); k++ {
		resid[c.index+k] -= c.omega * coef[k]
	}
}

// robustSigma returns 1.483 times the median absolute deviation of x.
func robustSigma(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	med := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	dev := make([]float64, len(x))
	for i, v := range x {
		dev[i] = math.Abs(v - med)
	}
	sort.Float64s(dev)
	return madScale * stat.Quantile(0.5, stat.Empirical, dev, nil)
}

// scan tests every eligible position and type in parallel chunks and returns
// the best candidate. resid is only read.
func (s *Searcher) scan(ctx context.Context, pat *patterns, resid []float64, start int, sigma float64,
	skip map[int]bool, cfg Config) (candidate, bool, error) {
	n := len(resid)
	positions := make([]int, 0, n-start)
	for t := start; t < n; t++ {
		if !skip[t] {
			positions = append(positions, t)
		}
	}
	if len(positions) == 0 {
		return candidate{}, false, nil
	}

	chunks := min(cfg.Parallelism, len(positions))
	size := (len(positions) + chunks - 1) / chunks
	bests := make([]candidate, chunks)
	found := make([]bool, chunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Parallelism)
	for i := 0; i < chunks; i++ {
		lo := i * size
		hi := min(lo+size, len(positions))
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			for _, t := range positions[lo:hi] {
				if err := gctx.Err(); err != nil {
					return err
				}
				for _, typ := range cfg.Types {
					// A level shift at the first position is confounded with the level.
					if typ == regressors.LevelShift && t == start {
						continue
					}
					c, ok := pat.test(typ, t, resid, sigma)
					if !ok {
						continue
					}
					if !found[i] || c.better(bests[i]) {
						bests[i], found[i] = c, true
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return candidate{}, false, err
	}

	var best candidate
	ok := false
	for i := range bests {
		if found[i] && (!ok || bests[i].better(best)) {
			best, ok = bests[i], true
		}
	}
	return best, ok, nil
}
