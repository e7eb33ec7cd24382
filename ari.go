package ari

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Options controls engine construction.
// Start with [DefaultOptions] and override the fields you need.
type Options struct {
	// Alpha is the family-wise error level of the closed-testing
	// procedure. Must be in (0,1). Default: 0.05.
	Alpha float64

	// Simes selects the classical Simes local test (denominator i).
	// false selects the Hommel-corrected denominator i*H_i, which is
	// valid without the positive-dependence assumption at some loss of
	// power. Default: true.
	Simes bool

	// Conn is the grid connectivity used by NewFromMask: 6 (faces),
	// 18 (faces+edges) or 26 (full). Ignored by New. Default: 26.
	Conn int

	// Workers controls the number of goroutines used by
	// AnswerQueryBatch; each worker answers whole queries on a private
	// scratch buffer, so results are identical to the serial path.
	// All other operations are single-threaded. Default: 1.
	Workers int
}

// DefaultOptions returns an Options with reasonable defaults.
func DefaultOptions() Options {
	return Options{
		Alpha:   0.05,
		Simes:   true,
		Conn:    26,
		Workers: 1,
	}
}

// applyDefaults fills in zero-valued Alpha, Conn and Workers with their
// defaults. Simes is left as given: its zero value false selects the
// Hommel denominator.
func applyDefaults(opts *Options) {
	if opts.Alpha == 0 {
		opts.Alpha = 0.05
	}
	if opts.Conn == 0 {
		opts.Conn = 26
	}
	if opts.Workers == 0 {
		opts.Workers = 1
	}
}

// validateOptions checks option fields and returns a descriptive error
// if any is out of range.
func validateOptions(opts *Options) error {
	if opts.Alpha <= 0 || opts.Alpha >= 1 {
		return errorf(ErrInvalidInput, "Alpha must be in (0,1), got %g", opts.Alpha)
	}
	if opts.Conn != 6 && opts.Conn != 18 && opts.Conn != 26 {
		return errorf(ErrInvalidInput, "Conn must be 6, 18 or 26, got %d", opts.Conn)
	}
	if opts.Workers < 1 {
		return errorf(ErrInvalidInput, "Workers must be >= 1, got %d", opts.Workers)
	}
	return nil
}

// Engine answers TDP cluster queries over a fixed statistical map. It is
// built once by [New], [NewWithOrder] or [NewFromMask]; afterwards all
// state is read-only except a private scratch buffer borrowed by each
// query, so distinct engines may run on distinct OS threads while a
// single engine must not be shared concurrently.
type Engine struct {
	m    int
	p    []float64 // original-order p-values
	ord  []int     // ord[i] is the voxel with the i-th smallest p
	rank []int     // inverse of ord

	hom    *Hommel
	forest *forest
	tdp    []float64
	admstc []int

	mark    []uint8 // query scratch; all-zeros between public calls
	workers int
}

// New builds an engine from per-voxel p-values and a symmetric,
// self-exclusive adjacency list. Voxel ids are positions in p. The
// sorting permutation is derived internally with a stable sort, so equal
// p-values keep voxel order. p is copied; adj is only read during
// construction.
func New(p []float64, adj [][]int, opts Options) (*Engine, error) {
	return NewWithOrder(p, nil, adj, opts)
}

// NewWithOrder is New for callers that already hold the ascending
// permutation ord of p (ties in stable voxel order). A nil ord is
// computed internally.
func NewWithOrder(p []float64, ord []int, adj [][]int, opts Options) (*Engine, error) {
	applyDefaults(&opts)
	if err := validateOptions(&opts); err != nil {
		return nil, err
	}
	if err := validatePValues(p); err != nil {
		return nil, err
	}
	m := len(p)
	if len(adj) != m {
		return nil, errorf(ErrInvalidInput, "adjacency has %d entries for %d voxels", len(adj), m)
	}
	for v, ids := range adj {
		for _, u := range ids {
			if u < 0 || u >= m {
				return nil, errorf(ErrInvalidInput, "neighbor %d of voxel %d outside [0,%d)", u, v, m)
			}
		}
	}
	if ord == nil {
		ord = stableArgsort(p)
	} else if err := validateOrder(p, ord); err != nil {
		return nil, err
	}
	rank := make([]int, m)
	for i, v := range ord {
		rank[v] = i
	}

	e := &Engine{
		m:       m,
		ord:     ord,
		rank:    rank,
		workers: opts.Workers,
	}
	e.hom = newHommel(p, ord, opts.Alpha, opts.Simes)
	e.p = e.hom.p
	e.forest = buildForest(m, adj, ord, rank)
	e.tdp = forestTDP(e.hom, e.forest)
	e.prepareQuery()
	e.mark = make([]uint8, m)
	return e, nil
}

// NewFromMask builds an engine for 3D grid data. mask is the flattened
// image in C order (x fastest-varying) holding 1-based voxel labels 1..m
// with 0 marking out-of-mask voxels; p[i] is the p-value of the voxel
// labeled i+1. The adjacency is derived under opts.Conn connectivity.
func NewFromMask(mask []int, dims [3]int, p []float64, opts Options) (*Engine, error) {
	applyDefaults(&opts)
	if err := validateOptions(&opts); err != nil {
		return nil, err
	}
	m := len(p)
	if len(mask) != dims[0]*dims[1]*dims[2] {
		return nil, errorf(ErrInvalidInput, "mask length %d does not match dims %v", len(mask), dims)
	}
	index := make([]int, m)
	seen := make([]bool, m)
	for linear, label := range mask {
		if label == 0 {
			continue
		}
		if label < 1 || label > m {
			return nil, errorf(ErrInvalidInput, "mask label %d outside [1,%d]", label, m)
		}
		if seen[label-1] {
			return nil, errorf(ErrInvalidInput, "mask label %d appears twice", label)
		}
		seen[label-1] = true
		index[label-1] = linear
	}
	for i, ok := range seen {
		if !ok {
			return nil, errorf(ErrInvalidInput, "mask label %d missing", i+1)
		}
	}
	adj, err := BuildAdjacency(mask, dims, index, opts.Conn)
	if err != nil {
		return nil, err
	}
	return NewWithOrder(p, nil, adj, opts)
}

// validatePValues rejects non-finite p-values (ErrNumeric) and values
// outside [0,1] (ErrInvalidInput).
func validatePValues(p []float64) error {
	for i, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errorf(ErrNumeric, "p[%d] = %v", i, v)
		}
	}
	if len(p) > 0 && (floats.Min(p) < 0 || floats.Max(p) > 1) {
		return errorf(ErrInvalidInput, "p-values must lie in [0,1]")
	}
	return nil
}

// validateOrder checks that ord is a permutation of [0,m) sorting p
// ascending.
func validateOrder(p []float64, ord []int) error {
	m := len(p)
	if len(ord) != m {
		return errorf(ErrInvalidInput, "ord has %d entries for %d voxels", len(ord), m)
	}
	seen := make([]bool, m)
	for _, v := range ord {
		if v < 0 || v >= m || seen[v] {
			return errorf(ErrInvalidInput, "ord is not a permutation of [0,%d)", m)
		}
		seen[v] = true
	}
	for i := 1; i < m; i++ {
		if p[ord[i-1]] > p[ord[i]] {
			return errorf(ErrInvalidInput, "ord does not sort p ascending at position %d", i)
		}
	}
	return nil
}

// stableArgsort returns the ascending permutation of p with ties kept in
// index order.
func stableArgsort(p []float64) []int {
	ord := make([]int, len(p))
	for i := range ord {
		ord[i] = i
	}
	sort.SliceStable(ord, func(a, b int) bool {
		return p[ord[a]] < p[ord[b]]
	})
	return ord
}

// NumVoxels returns the number of in-mask voxels m.
func (e *Engine) NumVoxels() int { return e.m }

// Hommel returns the engine's closed-testing machinery for subset-level
// discovery queries.
func (e *Engine) Hommel() *Hommel { return e.hom }

// TDP returns the TDP lower bound per forest node, -1 for nodes that do
// not represent a distinct supra-threshold cluster. The returned slice
// is owned by the engine; treat it as read-only.
func (e *Engine) TDP() []float64 { return e.tdp }

// PValues returns the engine's copy of the original-order p-values.
// Owned by the engine.
func (e *Engine) PValues() []float64 { return e.p }

// SubtreeSizes returns the subtree size per forest node. Owned by the
// engine.
func (e *Engine) SubtreeSizes() []int { return e.forest.subsize }

// Roots returns the forest roots, one per connected region of the mask.
// Owned by the engine.
func (e *Engine) Roots() []int { return e.forest.root }

// Children returns the children of node v, heavy child first. Owned by
// the engine.
func (e *Engine) Children(v int) []int { return e.forest.child[v] }

// Admissible returns the admissible cluster representatives in ascending
// TDP order. Owned by the engine.
func (e *Engine) Admissible() []int { return e.admstc }

// WholeBrainTDP returns the TDP lower bound over all in-mask voxels.
func (e *Engine) WholeBrainTDP() float64 {
	ids := make([]int, e.m)
	for i := range ids {
		ids[i] = i
	}
	return e.hom.SubsetTDP(ids)
}
