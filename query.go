package ari

import (
	"sort"
	"sync"
)

// prepareQuery builds the admissible-representative list: nodes whose TDP
// strictly exceeds the maximum TDP of every ancestor. Dominated and
// invalid nodes (tdp -1) never appear. The list is stable-sorted by TDP
// ascending, so equal-TDP representatives keep forest traversal order
// between runs.
func (e *Engine) prepareQuery() {
	type frame struct {
		v    int
		qmax float64 // maximum TDP strictly above v, -1 at a root
	}
	admstc := make([]int, 0, e.m)
	var stack []frame
	for _, r := range e.forest.root {
		stack = append(stack, frame{r, -1})
		for len(stack) > 0 {
			fr := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if e.tdp[fr.v] > fr.qmax {
				admstc = append(admstc, fr.v)
			}
			q := max(e.tdp[fr.v], fr.qmax)
			for _, c := range e.forest.child[fr.v] {
				stack = append(stack, frame{c, q})
			}
		}
	}
	sort.SliceStable(admstc, func(i, j int) bool {
		return e.tdp[admstc[i]] < e.tdp[admstc[j]]
	})
	e.admstc = admstc
}

// findLeft returns the smallest index i with tdp[admstc[i]] >= gamma, or
// len(admstc) if none exists. Binary and linear search run in parallel:
// the linear probe walks in from the right and short-circuits for the
// common case of a threshold near the top of the TDP range.
func (e *Engine) findLeft(gamma float64) int {
	right := len(e.admstc)
	low, high := 0, right
	for low < high {
		mid := (low + high) / 2
		if e.tdp[e.admstc[mid]] >= gamma {
			high = mid
		} else {
			low = mid + 1
		}
		right--
		if e.tdp[e.admstc[right]] < gamma {
			return right + 1
		}
	}
	return low
}

// AnswerQuery returns the maximal supra-threshold clusters whose TDP
// lower bound is at least gamma. Each cluster is a post-ordered slice of
// voxel ids with the representative last. Clusters are pairwise disjoint;
// their order is unspecified but stable between runs. Negative gamma is
// treated as 0.
func (e *Engine) AnswerQuery(gamma float64) [][]int {
	return e.answerQueryMarked(gamma, e.mark)
}

// answerQueryMarked is AnswerQuery against an explicit mark buffer, which
// must be all-zeros on entry and is restored to all-zeros on return.
func (e *Engine) answerQueryMarked(gamma float64, mark []uint8) [][]int {
	if gamma < 0 {
		gamma = 0
	}
	var ans [][]int
	left := e.findLeft(gamma)
	// admstc ascends in TDP and an admissible node's TDP exceeds that of
	// all its ancestors, so a marked representative means some ancestor
	// with lower TDP already emitted a superset cluster.
	for i := left; i < len(e.admstc); i++ {
		if mark[e.admstc[i]] != 0 {
			continue
		}
		desc := e.forest.descendants(e.admstc[i])
		ans = append(ans, desc)
		for _, v := range desc {
			mark[v] = 1
		}
	}
	for _, clus := range ans {
		for _, v := range clus {
			mark[v] = 0
		}
	}
	return ans
}

// AnswerQueryBatch answers one query per gamma. With Options.Workers > 1
// the gammas are answered concurrently on private mark buffers; results
// are positionally identical to the serial path either way.
func (e *Engine) AnswerQueryBatch(gammas []float64) [][][]int {
	results := make([][][]int, len(gammas))
	if e.workers <= 1 || len(gammas) <= 1 {
		for i, g := range gammas {
			results[i] = e.answerQueryMarked(g, e.mark)
		}
		return results
	}

	var wg sync.WaitGroup
	perWorker := (len(gammas) + e.workers - 1) / e.workers
	for w := 0; w < e.workers; w++ {
		start := w * perWorker
		end := min(start+perWorker, len(gammas))
		if start >= end {
			break
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			mark := make([]uint8, e.m)
			for i := start; i < end; i++ {
				results[i] = e.answerQueryMarked(gammas[i], mark)
			}
		}(start, end)
	}
	wg.Wait()
	return results
}

// LocalMinima returns the forest leaves: voxels whose p-value is a local
// minimum over their neighborhood.
func (e *Engine) LocalMinima() []int {
	return e.forest.localMinima()
}

// SortClustersBySize returns a permutation of cluster indices ordering
// the given clusters by descending size, via a counting sort over the
// size range.
func SortClustersBySize(clusters [][]int) []int {
	n := len(clusters)
	maxSize := 0
	for _, c := range clusters {
		maxSize = max(maxSize, len(c))
	}
	count := make([]int, maxSize+1)
	for _, c := range clusters {
		count[len(c)]++
	}
	// Cumulate from the top so larger sizes claim earlier positions.
	for i := maxSize; i > 0; i-- {
		count[i-1] += count[i]
	}
	sorted := make([]int, n)
	for i := 0; i < n; i++ {
		sorted[count[len(clusters[i])]-1] = i
		count[len(clusters[i])]--
	}
	return sorted
}
