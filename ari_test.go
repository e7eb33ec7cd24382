package ari

import (
	"errors"
	"math"
	"reflect"
	"sort"
	"testing"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.Alpha != 0.05 {
		t.Errorf("Alpha = %g, want 0.05", opts.Alpha)
	}
	if !opts.Simes {
		t.Error("Simes should default to true")
	}
	if opts.Conn != 26 {
		t.Errorf("Conn = %d, want 26", opts.Conn)
	}
	if opts.Workers != 1 {
		t.Errorf("Workers = %d, want 1", opts.Workers)
	}
}

func TestNew_RejectsBadInput(t *testing.T) {
	adj := chainAdjacency(2)
	cases := []struct {
		name string
		p    []float64
		adj  [][]int
		opts Options
		kind error
	}{
		{"nan p", []float64{0.1, math.NaN()}, adj, DefaultOptions(), ErrNumeric},
		{"inf p", []float64{0.1, math.Inf(1)}, adj, DefaultOptions(), ErrNumeric},
		{"p above 1", []float64{0.1, 1.5}, adj, DefaultOptions(), ErrInvalidInput},
		{"p below 0", []float64{-0.1, 0.5}, adj, DefaultOptions(), ErrInvalidInput},
		{"adj length", []float64{0.1, 0.5}, chainAdjacency(3), DefaultOptions(), ErrInvalidInput},
		{"neighbor range", []float64{0.1, 0.5}, [][]int{{5}, {0}}, DefaultOptions(), ErrInvalidInput},
		{"alpha too big", []float64{0.1, 0.5}, adj, Options{Alpha: 1.5}, ErrInvalidInput},
		{"alpha negative", []float64{0.1, 0.5}, adj, Options{Alpha: -0.1}, ErrInvalidInput},
		{"bad conn", []float64{0.1, 0.5}, adj, Options{Alpha: 0.05, Conn: 7}, ErrInvalidInput},
		{"negative workers", []float64{0.1, 0.5}, adj, Options{Alpha: 0.05, Workers: -2}, ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.p, tc.adj, tc.opts); !errors.Is(err, tc.kind) {
				t.Errorf("got %v, want %v", err, tc.kind)
			}
		})
	}
}

func TestNewWithOrder_ValidatesPermutation(t *testing.T) {
	p := []float64{0.2, 0.1, 0.3}
	adj := chainAdjacency(3)

	if _, err := NewWithOrder(p, []int{0, 1}, adj, DefaultOptions()); !errors.Is(err, ErrInvalidInput) {
		t.Error("short ord must be rejected")
	}
	if _, err := NewWithOrder(p, []int{0, 0, 1}, adj, DefaultOptions()); !errors.Is(err, ErrInvalidInput) {
		t.Error("duplicate ord must be rejected")
	}
	if _, err := NewWithOrder(p, []int{0, 1, 2}, adj, DefaultOptions()); !errors.Is(err, ErrInvalidInput) {
		t.Error("non-sorting ord must be rejected")
	}

	good, err := NewWithOrder(p, []int{1, 0, 2}, adj, DefaultOptions())
	if err != nil {
		t.Fatalf("valid ord rejected: %v", err)
	}
	derived, err := New(p, adj, DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !reflect.DeepEqual(good.TDP(), derived.TDP()) {
		t.Error("explicit and derived order disagree")
	}
}

func TestNew_EmptyInput(t *testing.T) {
	e, err := New(nil, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if e.NumVoxels() != 0 {
		t.Errorf("NumVoxels = %d, want 0", e.NumVoxels())
	}
	if ans := e.AnswerQuery(0); len(ans) != 0 {
		t.Errorf("AnswerQuery(0) = %v, want empty", ans)
	}
	if roots := e.Roots(); len(roots) != 0 {
		t.Errorf("Roots = %v, want empty", roots)
	}
}

func TestNew_StableTieOrder(t *testing.T) {
	// Equal p-values must resolve in voxel order so repeated runs build
	// the identical forest.
	p := []float64{0.2, 0.2, 0.2, 0.2}
	a, err := New(p, chainAdjacency(4), DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !equalInts(a.ord, []int{0, 1, 2, 3}) {
		t.Errorf("ord = %v, want identity", a.ord)
	}
	b, err := New(p, chainAdjacency(4), DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !reflect.DeepEqual(a.Admissible(), b.Admissible()) {
		t.Error("runs on identical input disagree")
	}
}

func TestNew_DoesNotAliasInput(t *testing.T) {
	p := []float64{0.001, 0.01, 0.02, 0.9, 0.03, 0.04}
	e, err := New(p, chainAdjacency(6), DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	before := e.AnswerQuery(0.5)
	p[0] = 0.7
	after := e.AnswerQuery(0.5)
	if !reflect.DeepEqual(before, after) {
		t.Error("engine output changed when caller mutated p")
	}
}

func TestNewFromMask_MatchesExplicitAdjacency(t *testing.T) {
	// 3x1x1 line under 6-connectivity is the 3-voxel chain.
	p := []float64{0.01, 0.3, 0.02}
	opts := DefaultOptions()
	opts.Conn = 6

	fromMask, err := NewFromMask([]int{1, 2, 3}, [3]int{3, 1, 1}, p, opts)
	if err != nil {
		t.Fatalf("NewFromMask: %v", err)
	}
	explicit, err := New(p, chainAdjacency(3), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !reflect.DeepEqual(fromMask.TDP(), explicit.TDP()) {
		t.Errorf("TDP from mask = %v, explicit = %v", fromMask.TDP(), explicit.TDP())
	}
	// Neighbor enumeration order may differ between the two
	// constructions, so compare clusters as sets.
	a := canonClusters(fromMask.AnswerQuery(0))
	b := canonClusters(explicit.AnswerQuery(0))
	if !reflect.DeepEqual(a, b) {
		t.Errorf("queries disagree: mask %v vs explicit %v", a, b)
	}
}

// canonClusters sorts every cluster's voxels and orders clusters by
// their smallest voxel, for order-insensitive comparison.
func canonClusters(clusters [][]int) [][]int {
	out := make([][]int, len(clusters))
	for i, c := range clusters {
		cp := make([]int, len(c))
		copy(cp, c)
		sort.Ints(cp)
		out[i] = cp
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) == 0 || len(out[j]) == 0 {
			return len(out[i]) < len(out[j])
		}
		return out[i][0] < out[j][0]
	})
	return out
}

func TestNewFromMask_RejectsBadMask(t *testing.T) {
	p := []float64{0.1, 0.2}
	dims := [3]int{2, 1, 1}
	cases := []struct {
		name string
		mask []int
	}{
		{"wrong length", []int{1}},
		{"label too big", []int{1, 3}},
		{"duplicate label", []int{1, 1}},
		{"missing label", []int{1, 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewFromMask(tc.mask, dims, p, DefaultOptions()); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("got %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestEngine_AccessorsShareLength(t *testing.T) {
	e := bridgeFixture(t)
	if len(e.TDP()) != e.NumVoxels() {
		t.Error("TDP length mismatch")
	}
	if len(e.SubtreeSizes()) != e.NumVoxels() {
		t.Error("SubtreeSizes length mismatch")
	}
	if e.Hommel() == nil {
		t.Error("Hommel accessor returned nil")
	}
}
