package ari

// categoryUnionFind is a disjoint-set over the Hommel category range
// 0..maxCat with union by rank and path compression. Each set tracks the
// smallest category it contains, so "the lowest unmerged category at or
// below k" is answered in amortized inverse-Ackermann time. It is
// allocated per Discoveries call and sized by maxCat, never by m.
type categoryUnionFind struct {
	parent []int
	rank   []int
	lowest []int
}

// newCategoryUnionFind creates a categoryUnionFind over 0..maxCat.
func newCategoryUnionFind(maxCat int) *categoryUnionFind {
	parent := make([]int, maxCat+1)
	rank := make([]int, maxCat+1)
	lowest := make([]int, maxCat+1)
	for i := range parent {
		parent[i] = i
		lowest[i] = i
	}
	return &categoryUnionFind{parent: parent, rank: rank, lowest: lowest}
}

// find returns the root of the set containing x, halving the path as it
// walks so later finds stay cheap.
func (uf *categoryUnionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

// union merges the sets containing x and y by rank. The surviving root
// carries the smaller of the two lowest-category values.
func (uf *categoryUnionFind) union(x, y int) {
	rootX := uf.find(x)
	rootY := uf.find(y)
	if rootX == rootY {
		return
	}
	if uf.rank[rootX] < uf.rank[rootY] {
		rootX, rootY = rootY, rootX
	} else if uf.rank[rootX] == uf.rank[rootY] {
		uf.rank[rootX]++
	}
	uf.parent[rootY] = rootX
	uf.lowest[rootX] = min(uf.lowest[rootX], uf.lowest[rootY])
}

// forestUnionFind is a disjoint-set over voxels with union by size and
// forest-root tracking. Sets are the growing components of the cluster
// forest; forestroot[rep] names the component's forest root (the voxel
// with the largest p-value seen so far), and component size is stored at
// that forest-root index rather than at the union-find representative.
type forestUnionFind struct {
	parent     []int
	size       []int
	forestroot []int
}

// newForestUnionFind creates a forestUnionFind over m singleton voxels.
func newForestUnionFind(m int) *forestUnionFind {
	parent := make([]int, m)
	size := make([]int, m)
	forestroot := make([]int, m)
	for i := range parent {
		parent[i] = i
		size[i] = 1
		forestroot[i] = i
	}
	return &forestUnionFind{parent: parent, size: size, forestroot: forestroot}
}

// find returns the representative of the set containing x, with path
// halving.
func (uf *forestUnionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

// unionBySize merges the set containing i with the set whose
// representative is jrep. The side with the larger forest-root size keeps
// the representative; on a tie the side of i wins, which is what keeps
// the current voxel on top during forest construction. The merged
// component always keeps the forest root of i's side, and the combined
// size is accumulated at that forest-root index.
func (uf *forestUnionFind) unionBySize(i, jrep int) {
	irep := uf.find(i)
	if irep == jrep {
		return
	}
	iroot := uf.forestroot[irep]
	jroot := uf.forestroot[jrep]
	if uf.size[iroot] < uf.size[jroot] {
		uf.parent[irep] = jrep
		uf.forestroot[jrep] = iroot
	} else {
		uf.parent[jrep] = irep
	}
	uf.size[iroot] += uf.size[jroot]
}
