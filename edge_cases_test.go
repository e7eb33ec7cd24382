package ari

import (
	"reflect"
	"testing"
)

func TestEdgeCase_LinearChain(t *testing.T) {
	p := []float64{0.01, 0.02, 0.03, 0.04}
	e, err := New(p, chainAdjacency(4), DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(e.Roots()) != 1 {
		t.Fatalf("Roots = %v, want one root", e.Roots())
	}

	// Every prefix of this chain is fully certified, so the whole heavy
	// path carries TDP 1.
	root := e.Roots()[0]
	for v := root; ; v = e.Children(v)[0] {
		if d := e.TDP()[v]; d != 1 {
			t.Errorf("tdp[%d] = %g, want 1", v, d)
		}
		if e.forest.subsize[v] == 1 {
			break
		}
	}

	ans := e.AnswerQuery(0.5)
	if len(ans) != 1 || len(ans[0]) != 4 {
		t.Fatalf("AnswerQuery(0.5) = %v, want one cluster of four voxels", ans)
	}
}

func TestEdgeCase_TwoDisconnectedVoxels(t *testing.T) {
	p := []float64{0.01, 0.99}
	e, err := New(p, [][]int{{}, {}}, DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !equalInts(e.Roots(), []int{0, 1}) {
		t.Fatalf("Roots = %v, want [0 1]", e.Roots())
	}
	// The high-p voxel has the lower TDP and therefore sorts first.
	if !equalInts(e.Admissible(), []int{1, 0}) {
		t.Errorf("Admissible = %v, want [1 0]", e.Admissible())
	}
	ans := e.AnswerQuery(0)
	want := [][]int{{1}, {0}}
	if !reflect.DeepEqual(ans, want) {
		t.Errorf("AnswerQuery(0) = %v, want %v", ans, want)
	}
}

func TestEdgeCase_SingleVoxel(t *testing.T) {
	e, err := New([]float64{0.001}, [][]int{{}}, DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !equalInts(e.Roots(), []int{0}) {
		t.Fatalf("Roots = %v, want [0]", e.Roots())
	}
	if e.TDP()[0] != 1 {
		t.Errorf("tdp[0] = %g, want 1", e.TDP()[0])
	}
	if ans := e.AnswerQuery(1.0); !reflect.DeepEqual(ans, [][]int{{0}}) {
		t.Errorf("AnswerQuery(1.0) = %v, want [[0]]", ans)
	}
	if ans := e.AnswerQuery(1.01); len(ans) != 0 {
		t.Errorf("AnswerQuery(1.01) = %v, want empty", ans)
	}
}

func TestEdgeCase_NoDiscoveries(t *testing.T) {
	// Every p-value at 1: nothing is certified, the map still forms one
	// cluster with TDP 0 retrievable at gamma 0.
	p := []float64{1, 1, 1, 1}
	e, err := New(p, chainAdjacency(4), DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	root := e.Roots()[0]
	if e.TDP()[root] != 0 {
		t.Errorf("root tdp = %g, want 0", e.TDP()[root])
	}
	if ans := e.AnswerQuery(0.5); len(ans) != 0 {
		t.Errorf("AnswerQuery(0.5) = %v, want empty", ans)
	}
	ans := e.AnswerQuery(0)
	if len(ans) != 1 || len(ans[0]) != 4 {
		t.Errorf("AnswerQuery(0) = %v, want the whole map", ans)
	}
}

func TestEdgeCase_PValueZero(t *testing.T) {
	// An exact zero p-value is category 0 and always a discovery.
	p := []float64{0, 0.8}
	e, err := New(p, chainAdjacency(2), DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if e.TDP()[0] != 1 {
		t.Errorf("tdp[0] = %g, want 1", e.TDP()[0])
	}
}

func TestEdgeCase_AllConnectedEqualP(t *testing.T) {
	// Fully connected triangle with equal p: one root, children invalid.
	p := []float64{0.1, 0.1, 0.1}
	adj := [][]int{{1, 2}, {0, 2}, {0, 1}}
	e, err := New(p, adj, DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(e.Roots()) != 1 {
		t.Fatalf("Roots = %v, want one root", e.Roots())
	}
	if len(e.Admissible()) != 1 {
		t.Errorf("Admissible = %v, want a single representative", e.Admissible())
	}
	ans := e.AnswerQuery(0)
	if len(ans) != 1 || len(ans[0]) != 3 {
		t.Errorf("AnswerQuery(0) = %v, want one cluster of three", ans)
	}
}
