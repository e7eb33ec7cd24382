package ari

import "sort"

// findRep returns the index of the cluster in ans that contains voxel v,
// or -1 if none does. Within a candidate cluster a two-pointer scan
// suffices because the representative sits at the last position and a
// smaller subtree cannot contain v.
func (e *Engine) findRep(v int, ans [][]int) int {
	for i, clus := range ans {
		rep := clus[len(clus)-1]
		if rep == v {
			return i
		}
		if e.forest.subsize[rep] <= e.forest.subsize[v] {
			continue
		}
		left, right := 0, len(clus)-1
		for left <= right {
			if clus[left] == v || clus[right] == v {
				return i
			}
			left++
			right--
		}
	}
	return -1
}

// findIndex locates the representative rep in admstc: binary search by
// TDP, then an identity scan across the equal-TDP run. Returns -1 if rep
// is not admissible.
func (e *Engine) findIndex(rep int) int {
	t := e.tdp[rep]
	i := sort.Search(len(e.admstc), func(j int) bool {
		return e.tdp[e.admstc[j]] >= t
	})
	for ; i < len(e.admstc) && e.tdp[e.admstc[i]] == t; i++ {
		if e.admstc[i] == rep {
			return i
		}
	}
	return -1
}

// ChangeQuery grows or shrinks the cluster of ans containing voxel v by
// the requested TDP change and returns the updated answer set. ans is
// normally the output of a prior AnswerQuery and is not modified.
//
// A negative tdpchg grows the cluster: the nearest admissible ancestor
// whose TDP drop satisfies the request replaces it, and any other cluster
// of ans swallowed by the enlarged cluster is dropped. A positive tdpchg
// shrinks it: every maximal admissible sub-cluster whose TDP rise
// satisfies the request replaces it. Other clusters are carried
// unchanged. If the request is valid but no candidate exists, the answer
// set is returned unchanged.
func (e *Engine) ChangeQuery(v int, tdpchg float64, ans [][]int) ([][]int, error) {
	if len(e.admstc) == 0 {
		return nil, ErrEmptyAdmissible
	}
	if v < 0 || v >= e.m {
		return nil, errorf(ErrInvalidInput, "voxel %d outside [0,%d)", v, e.m)
	}
	iclus := e.findRep(v, ans)
	if iclus < 0 {
		return nil, errorf(ErrNoSuchCluster, "voxel %d", v)
	}
	clus := ans[iclus]
	rep := clus[len(clus)-1]
	idxv := e.findIndex(rep)
	if idxv < 0 {
		return nil, errorf(ErrNoSuchCluster, "representative %d not admissible", rep)
	}
	if tdpchg <= -1 || tdpchg == 0 || tdpchg >= 1 {
		return nil, errorf(ErrOutOfRange, "tdpchg %g not in (-1,1) \\ {0}", tdpchg)
	}

	minTDP := e.tdp[e.admstc[0]]
	maxTDP := e.tdp[e.admstc[len(e.admstc)-1]]
	curTDP := e.tdp[rep]
	switch {
	case tdpchg < 0 && minTDP == curTDP,
		tdpchg > 0 && maxTDP == curTDP:
		return nil, errorf(ErrNoFurtherChange, "cluster already at the TDP extreme")
	case tdpchg < 0 && minTDP-curTDP > tdpchg:
		return nil, errorf(ErrNoFurtherChange, "TDP reduction of %g not achievable", -tdpchg)
	case tdpchg > 0 && maxTDP-curTDP < tdpchg:
		return nil, errorf(ErrNoFurtherChange, "TDP augmentation of %g not achievable", tdpchg)
	}

	for _, u := range clus {
		e.mark[u] = 1
	}
	defer func() {
		for _, u := range clus {
			e.mark[u] = 0
		}
	}()

	if tdpchg < 0 {
		return e.growCluster(iclus, idxv, tdpchg, clus, ans), nil
	}
	return e.shrinkCluster(iclus, idxv, tdpchg, ans), nil
}

// growCluster scans admissible representatives below idxv for the first
// larger cluster whose TDP drop satisfies the request and whose subtree
// intersects the marked cluster. Clusters of ans contained in the
// enlarged cluster are dropped.
func (e *Engine) growCluster(iclus, idxv int, tdpchg float64, clus []int, ans [][]int) [][]int {
	want := e.tdp[e.admstc[idxv]] + tdpchg
	for i := idxv - 1; i >= 0; i-- {
		cand := e.admstc[i]
		if e.tdp[cand] < 0 || e.tdp[cand] > want ||
			e.forest.subsize[cand] <= e.forest.subsize[e.admstc[idxv]] {
			continue
		}
		desc := e.forest.descendants(cand)
		if !e.intersectsMarked(desc, len(clus)) {
			continue
		}

		chg := [][]int{desc}
		dfsz := len(desc) - len(clus)
		for j, cl := range ans {
			if j == iclus {
				continue
			}
			if dfsz < len(cl) {
				// Too small to swallow cl; carry it unchanged.
				chg = append(chg, cl)
				continue
			}
			for _, u := range cl {
				e.mark[u] = 2
			}
			if e.containsMarked(desc, len(cl)) {
				dfsz -= len(cl)
			} else {
				chg = append(chg, cl)
			}
			for _, u := range cl {
				e.mark[u] = 0
			}
		}
		return chg
	}
	// No admissible ancestor qualifies; keep the answer set as is.
	return ans
}

// shrinkCluster scans admissible representatives above idxv and collects
// every maximal sub-cluster inside the marked cluster whose TDP rise
// satisfies the request. Other clusters of ans are carried unchanged.
func (e *Engine) shrinkCluster(iclus, idxv int, tdpchg float64, ans [][]int) [][]int {
	want := e.tdp[e.admstc[idxv]] + tdpchg
	var chg [][]int
	for i := idxv + 1; i < len(e.admstc); i++ {
		cand := e.admstc[i]
		if e.tdp[cand] < 0 || e.tdp[cand] < want || e.mark[cand] != 1 {
			continue
		}
		desc := e.forest.descendants(cand)
		chg = append(chg, desc)
		for _, u := range desc {
			e.mark[u] = 2
		}
	}
	if chg == nil {
		// No sub-cluster qualifies; keep the answer set as is.
		return ans
	}
	for j, cl := range ans {
		if j != iclus {
			chg = append(chg, cl)
		}
	}
	return chg
}

// intersectsMarked reports whether desc contains any node currently
// marked nonzero, scanning from both ends. The marked nodes form one
// post-order-contiguous block of the given length when present, so the
// scan may stop once the untested window is narrower than the block.
func (e *Engine) intersectsMarked(desc []int, blockLen int) bool {
	left, right := 0, len(desc)-1
	for right-left >= blockLen-1 {
		if e.mark[desc[left]] != 0 || e.mark[desc[right]] != 0 {
			return true
		}
		left++
		right--
	}
	return false
}

// containsMarked reports whether desc contains the nodes marked 2, using
// the same contiguous-block argument as intersectsMarked.
func (e *Engine) containsMarked(desc []int, blockLen int) bool {
	left, right := 0, len(desc)-1
	for right-left >= blockLen-1 {
		if e.mark[desc[left]] == 2 || e.mark[desc[right]] == 2 {
			return true
		}
		left++
		right--
	}
	return false
}
