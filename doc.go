// Package ari implements All-Resolutions Inference (ARI) for voxel-wise
// statistical maps.
//
// Given per-voxel p-values and a spatial adjacency, ARI computes, for every
// True Discovery Proportion (TDP) threshold gamma in [0, 1], the maximal
// supra-threshold clusters whose TDP lower bound is at least gamma. The
// bounds are simultaneously valid over all subsets in the closed-testing
// sense of Hommel/Simes, so a user may raise and lower gamma interactively
// without spending additional error budget.
//
// Basic usage:
//
//	opts := ari.DefaultOptions()
//	opts.Alpha = 0.05
//	engine, err := ari.New(p, adj, opts)
//	// clusters := engine.AnswerQuery(0.7)
//	// each cluster is a []int of voxel ids; the representative is last
//
// For 3D grid data, derive the adjacency from a labeled mask:
//
//	engine, err := ari.NewFromMask(mask, dims, p, opts)
//
// # Pipeline
//
// Construction runs four stages: the Hommel closed-testing engine (concave
// hull of sorted p-values, alpha-jump sequence, concentration bound), a
// single union-find pass building the cluster forest in ascending p-value
// order, TDP assignment to every forest node via heavy-path decomposition,
// and preparation of the admissible-representative list that answers
// gamma queries in sublinear time. After construction the engine is
// read-only except for a private mark buffer borrowed by each query.
package ari
