package ari

// forest is the cluster forest over all voxels. Node v represents the
// supra-threshold cluster "every voxel in subtree(v) with rank <= rank(v)";
// its children are ordered with the heavy (largest-subtree) child first.
type forest struct {
	child   [][]int // children per node, heavy child at index 0
	root    []int   // forest roots, one per connected region of the mask
	subsize []int   // subtree size per node
}

// buildForest runs a single union-find pass over the voxels in ascending
// p-value order. Each voxel merges with the components of its
// already-visited neighbors and becomes the forest root of the union, so
// the forest records every supra-threshold cluster at every threshold.
func buildForest(m int, adj [][]int, ord, rank []int) *forest {
	child := make([][]int, m)
	uf := newForestUnionFind(m)

	var chd []int
	for i := 0; i < m; i++ {
		v := ord[i]
		for _, u := range adj[v] {
			if rank[u] >= i {
				continue
			}
			jrep := uf.find(u)
			w := uf.forestroot[jrep]
			if v == w {
				// Neighbor already absorbed into v's growing cluster.
				continue
			}
			uf.unionBySize(v, jrep)

			// Keep the heaviest child at the head; everything else keeps
			// encounter order at the tail.
			if len(chd) == 0 || uf.size[chd[0]] >= uf.size[w] {
				chd = append(chd, w)
			} else {
				chd = append(chd, 0)
				copy(chd[1:], chd)
				chd[0] = w
			}
		}
		if len(chd) > 0 {
			child[v] = make([]int, len(chd))
			copy(child[v], chd)
			chd = chd[:0]
		}
	}

	var root []int
	for i := 0; i < m; i++ {
		if uf.parent[i] == i {
			root = append(root, uf.forestroot[i])
		}
	}

	f := &forest{child: child, root: root}
	f.subsize = subtreeSizes(m, child, ord)
	return f
}

// subtreeSizes computes the subtree size of every node with a bottom-up
// sweep. Children always carry a lower rank than their parent, so walking
// ord in ascending order visits every child before its parent.
func subtreeSizes(m int, child [][]int, ord []int) []int {
	subsize := make([]int, m)
	for _, v := range ord {
		s := 1
		for _, c := range child[v] {
			s += subsize[c]
		}
		subsize[v] = s
	}
	return subsize
}

// descendants returns all nodes of subtree(v) in post-order, v last. The
// output buffer doubles as the traversal stack: the stack grows leftward
// from the right end while finished nodes fill the prefix, and a pending
// node is distinguished from an emitted one by storing its bitwise
// complement (^v, negative for every id including 0). Because the heavy
// child is pushed last at every level, the first subsize[u] entries of
// the result are exactly the descendants of u for every u on the heavy
// path from v.
func (f *forest) descendants(v int) []int {
	desc := make([]int, f.subsize[v])
	n := 0
	top := len(desc) - 1
	desc[top] = v
	for top < len(desc) {
		v = desc[top]
		top++
		if v < 0 {
			desc[n] = ^v
			n++
			continue
		}
		top--
		desc[top] = ^v
		chd := f.child[v]
		for j := len(chd) - 1; j >= 0; j-- {
			top--
			desc[top] = chd[j]
		}
	}
	return desc
}

// localMinima returns the forest leaves: voxels whose p-value is a local
// minimum over their neighborhood.
func (f *forest) localMinima() []int {
	var lms []int
	for v, chd := range f.child {
		if len(chd) == 0 {
			lms = append(lms, v)
		}
	}
	return lms
}
