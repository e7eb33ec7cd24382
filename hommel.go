package ari

import (
	"math"
	"sort"
)

// Hommel is the closed-testing engine for Simes-based local tests. It is
// built once from the p-values and answers discovery-count queries for
// arbitrary voxel subsets. All methods are read-only after construction.
type Hommel struct {
	m     int
	alpha float64
	simes bool

	p       []float64 // original-order p-values
	ord     []int     // stable ascending permutation of p
	sortedP []float64 // p-values in ascending order

	simesFactor []float64 // denominator table, index 0 is a 0 sentinel
	jumpAlpha   []float64 // alpha values at the jumps of h(alpha)
	h           int       // hypotheses not rejected in the closure
	simesh      float64   // simesFactor[h]/h, 0 when h == 0
	z           int       // concentration bound
}

// NewHommel builds a closed-testing engine for the given p-values at
// family-wise error level alpha. simes selects the classical Simes local
// test; false selects the Hommel-corrected denominator. The p slice is
// copied and may be reused by the caller.
func NewHommel(p []float64, alpha float64, simes bool) (*Hommel, error) {
	if err := validatePValues(p); err != nil {
		return nil, err
	}
	if alpha <= 0 || alpha >= 1 {
		return nil, errorf(ErrInvalidInput, "alpha must be in (0,1), got %g", alpha)
	}
	ord := stableArgsort(p)
	return newHommel(p, ord, alpha, simes), nil
}

// newHommel wires the engine from pre-validated inputs. ord must be a
// stable ascending permutation of p.
func newHommel(p []float64, ord []int, alpha float64, simes bool) *Hommel {
	m := len(p)
	pCopy := make([]float64, m)
	copy(pCopy, p)
	sortedP := make([]float64, m)
	for i, v := range ord {
		sortedP[i] = p[v]
	}

	hom := &Hommel{
		m:       m,
		alpha:   alpha,
		simes:   simes,
		p:       pCopy,
		ord:     ord,
		sortedP: sortedP,
	}
	hom.simesFactor = findSimesFactor(simes, m)
	hom.jumpAlpha = findAlpha(sortedP, m, hom.simesFactor, simes)
	hom.h = findHalpha(hom.jumpAlpha, alpha, m)
	if hom.h > 0 {
		hom.simesh = hom.simesFactor[hom.h] / float64(hom.h)
	}
	hom.z = findConcentration(sortedP, hom.simesh, hom.h, alpha, m)
	return hom
}

// findSimesFactor builds the denominator table of the local test:
// simesFactor[i] = i for Simes, i*H_i for Hommel, with H_i the i-th
// harmonic number. Index 0 is a 0 sentinel.
func findSimesFactor(simes bool, m int) []float64 {
	simesFactor := make([]float64, m+1)
	if simes {
		for i := 1; i <= m; i++ {
			simesFactor[i] = float64(i)
		}
	} else {
		multiplier := 0.0
		for i := 1; i <= m; i++ {
			multiplier += 1.0 / float64(i)
			simesFactor[i] = float64(i) * multiplier
		}
	}
	return simesFactor
}

// findHull returns the indices on the lower concave hull of the points
// (i+1, sortedP[i]), anchored at the origin and terminated at index m-1
// (Fortune 1989).
func findHull(m int, sortedP []float64) []int {
	hull := make([]int, 1, m)
	for i := 1; i < m; i++ {
		if i != m-1 && float64(m-1)*(sortedP[i]-sortedP[0]) >= float64(i)*(sortedP[m-1]-sortedP[0]) {
			continue
		}
		for {
			r := len(hull) - 1
			var notConvex bool
			switch {
			case r > 0:
				notConvex = float64(i-hull[r-1])*(sortedP[hull[r]]-sortedP[hull[r-1]]) >=
					float64(hull[r]-hull[r-1])*(sortedP[i]-sortedP[hull[r-1]])
			case r == 0:
				// Compare against the origin; abscissa of index j is j+1.
				notConvex = float64(i+1)*sortedP[hull[0]] >= float64(hull[0]+1)*sortedP[i]
			default:
				notConvex = false
			}
			if !notConvex {
				break
			}
			hull = hull[:r]
		}
		hull = append(hull, i)
	}
	return hull
}

// findAlpha computes the alpha values at which h(alpha) jumps, walking
// the concave hull from its far end. The sequence is non-increasing in i
// (after clamping and suffix-max for the Hommel variant).
func findAlpha(sortedP []float64, m int, simesFactor []float64, simes bool) []float64 {
	jumpAlpha := make([]float64, m)
	if m == 0 {
		return jumpAlpha
	}
	hull := findHull(m, sortedP)
	k := len(hull) - 1
	i := 0
	for i < m {
		if k > 0 {
			dk := sortedP[hull[k-1]]*float64(hull[k]-m+i+1) -
				sortedP[hull[k]]*float64(hull[k-1]-m+i+1)
			if dk < 0 {
				k--
				continue
			}
		}
		jumpAlpha[i] = simesFactor[i+1] * sortedP[hull[k]] / float64(hull[k]-m+i+1)
		i++
	}
	if !simes {
		for i := m - 1; i >= 0; i-- {
			if jumpAlpha[i] > 1 {
				jumpAlpha[i] = 1
			}
		}
		for i := m - 2; i >= 0; i-- {
			if jumpAlpha[i] < jumpAlpha[i+1] {
				jumpAlpha[i] = jumpAlpha[i+1]
			}
		}
	}
	return jumpAlpha
}

// findHalpha returns the largest h such that jumpAlpha[h-1] > alpha, or 0
// if there is none. Binary search over the non-increasing sequence.
func findHalpha(jumpAlpha []float64, alpha float64, m int) int {
	return sort.Search(m, func(i int) bool {
		return jumpAlpha[i] <= alpha
	})
}

// findConcentration returns the concentration bound z at the given alpha
// as a zero-based index into sortedP, marking the end of the smallest
// prefix of sorted p-values that is guaranteed to contain every discovery
// the closed-testing argument can certify.
func findConcentration(sortedP []float64, simesh float64, h int, alpha float64, m int) int {
	z := m - h - 1
	if z < 0 {
		z = 0
	}
	for z < m-1 && simesh*sortedP[z] > float64(z-m+h+2)*alpha {
		z++
	}
	return z
}

// category assigns a p-value to its Hommel category. Category 0 means the
// hypothesis is rejected outright at every relevant level; category m
// (alpha = 0) means it never is.
func (hom *Hommel) category(pv float64) int {
	if pv == 0 || hom.simesh == 0 {
		return 0
	}
	if hom.alpha == 0 {
		return hom.m
	}
	cat := math.Ceil(hom.simesh / hom.alpha * pv)
	if cat-1 >= float64(hom.m) {
		return hom.m
	}
	return int(cat) - 1
}

// Discoveries returns, for each prefix of ids, a simultaneously valid
// lower bound on the number of true discoveries among {ids[0]..ids[j]}.
// The sequence is non-decreasing with steps of 0 or 1. ids are voxel ids
// into the original-order p-values; the per-call scratch is sized by the
// concentration bound, not by m.
func (hom *Hommel) Discoveries(ids []int) []int {
	k := len(ids)
	disc := make([]int, k)
	if k == 0 {
		return disc
	}

	cats := make([]int, k)
	for j, id := range ids {
		cats[j] = hom.category(hom.p[id])
	}

	maxCat := min(hom.z-hom.m+hom.h, k)
	maxCatSeen := 0
	for j := k - 1; j >= 0; j-- {
		if cats[j] > maxCatSeen {
			maxCatSeen = cats[j]
			if maxCatSeen >= maxCat {
				break
			}
		}
	}
	maxCat = min(maxCat, maxCatSeen)
	if maxCat < 0 {
		return disc
	}

	uf := newCategoryUnionFind(maxCat)
	n := 0
	for j := 0; j < k; j++ {
		if cats[j] <= maxCat {
			root := uf.find(cats[j])
			if low := uf.lowest[root]; low == 0 {
				n++
			} else {
				uf.union(low-1, root)
			}
		}
		disc[j] = n
	}
	return disc
}

// SubsetTDP returns the TDP lower bound for the voxel subset ids: the
// guaranteed discovery count divided by the subset size. The whole-brain
// TDP is SubsetTDP over all voxel ids. Returns 0 for an empty subset.
func (hom *Hommel) SubsetTDP(ids []int) float64 {
	if len(ids) == 0 {
		return 0
	}
	disc := hom.Discoveries(ids)
	return float64(disc[len(disc)-1]) / float64(len(ids))
}

// AdjustedP returns closed-testing adjusted p-values for all elementary
// hypotheses, in original voxel order. An elementary hypothesis is
// rejected at family-wise level a iff its adjusted p-value is <= a.
func (hom *Hommel) AdjustedP() []float64 {
	m := hom.m
	adjusted := make([]float64, m)
	i := 0
	j := m
	// j stops at 1: simesFactor[0] is 0, so the j = 1 test accepts
	// whenever jumpAlpha is comparable at all.
	for i < m {
		if j == 1 || hom.simesFactor[j-1]*hom.sortedP[i] <= hom.jumpAlpha[j-1] {
			adjusted[hom.ord[i]] = math.Min(hom.simesFactor[j]*hom.sortedP[i], hom.jumpAlpha[j-1])
			i++
		} else {
			j--
		}
	}
	return adjusted
}

// AdjustedIntersection returns the adjusted p-value of an intersection
// hypothesis given its raw Simes p-value pI.
func (hom *Hommel) AdjustedIntersection(pI float64) float64 {
	if hom.m == 0 {
		return 0
	}
	// Largest j in [1, m] with simesFactor[j-1]*pI <= jumpAlpha[j-1]; the
	// predicate holds at j = 1 and is monotone, so binary search applies.
	lower := 1
	upper := hom.m + 1
	for lower < upper-1 {
		mid := (lower + upper) / 2
		if hom.simesFactor[mid-1]*pI <= hom.jumpAlpha[mid-1] {
			lower = mid
		} else {
			upper = mid
		}
	}
	return math.Min(hom.simesFactor[lower]*pI, hom.jumpAlpha[lower-1])
}

// JumpAlpha returns the alpha-jump sequence, non-increasing in i. The
// returned slice is owned by the engine; treat it as read-only.
func (hom *Hommel) JumpAlpha() []float64 { return hom.jumpAlpha }

// H returns h(alpha), the number of hypotheses not rejected in the
// closure at the engine's alpha.
func (hom *Hommel) H() int { return hom.h }

// Concentration returns the concentration bound z(alpha, h) as an index
// into the sorted p-values.
func (hom *Hommel) Concentration() int { return hom.z }

// SimesFactor returns the denominator table of the local test; index 0 is
// a 0 sentinel. The returned slice is owned by the engine.
func (hom *Hommel) SimesFactor() []float64 { return hom.simesFactor }
