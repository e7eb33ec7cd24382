package ari

// forestTDP assigns every forest node its TDP lower bound. Each node lies
// on exactly one heavy path (starting at a forest root or at a non-first
// child), and each heavy path costs a single Discoveries call over the
// path head's descendants, so the total work is O(m log m) amortized.
func forestTDP(hom *Hommel, f *forest) []float64 {
	tdp := make([]float64, hom.m)
	for _, r := range f.root {
		heavyPathTDP(r, -1, hom, f, tdp)
	}
	for v := range f.child {
		chd := f.child[v]
		for j := 1; j < len(chd); j++ {
			heavyPathTDP(chd[j], v, hom, f, tdp)
		}
	}
	return tdp
}

// heavyPathTDP computes the TDP bounds along the heavy path starting at v,
// whose parent is par (-1 for a forest root). The post-order descendant
// listing guarantees that the first subsize[u] entries are exactly the
// descendants of u for every u on the path, so one Discoveries call
// serves the whole path: the bound of u is the discovery count of that
// prefix divided by the subtree size.
//
// A node sharing its p-value with its parent is not a distinct
// supra-threshold cluster; it gets the sentinel TDP -1.
func heavyPathTDP(v, par int, hom *Hommel, f *forest, tdp []float64) {
	desc := f.descendants(v)
	disc := hom.Discoveries(desc)
	for {
		if par == -1 || hom.p[v] != hom.p[par] {
			tdp[v] = float64(disc[f.subsize[v]-1]) / float64(f.subsize[v])
		} else {
			tdp[v] = -1
		}
		if f.subsize[v] == 1 {
			return
		}
		par = v
		v = f.child[v][0]
	}
}
