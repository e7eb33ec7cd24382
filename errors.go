package ari

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the engine. Callers dispatch with errors.Is;
// the wrapped message carries the specifics.
var (
	// ErrInvalidInput reports malformed construction input: negative m,
	// an ord that is not a permutation, alpha outside (0,1), p outside
	// [0,1], or an adjacency referencing out-of-range voxels.
	ErrInvalidInput = errors.New("ari: invalid input")

	// ErrEmptyAdmissible reports a ChangeQuery against an engine with no
	// admissible clusters.
	ErrEmptyAdmissible = errors.New("ari: no admissible clusters")

	// ErrNoSuchCluster reports a ChangeQuery voxel that lies in no
	// cluster of the supplied answer set.
	ErrNoSuchCluster = errors.New("ari: voxel not in any cluster")

	// ErrOutOfRange reports a ChangeQuery TDP change outside (-1,1) or
	// equal to zero.
	ErrOutOfRange = errors.New("ari: tdp change out of range")

	// ErrNoFurtherChange reports a ChangeQuery whose requested TDP change
	// exceeds what the admissible set can deliver for the chosen cluster.
	ErrNoFurtherChange = errors.New("ari: no further change attainable")

	// ErrNumeric reports a non-finite p-value.
	ErrNumeric = errors.New("ari: non-finite p-value")
)

// errorf wraps one of the sentinel kinds with call-site detail, keeping
// errors.Is dispatch intact.
func errorf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{kind}, args...)...)
}
