package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilwork/grimoire/internal/identity"
)

func ids(vals ...uint64) []identity.NodeID {
	out := make([]identity.NodeID, len(vals))
	for i, v := range vals {
		out[i] = identity.NodeID(v)
	}
	return out
}

func edge(from, to uint64) Edge {
	return Edge{From: identity.NodeID(from), To: identity.NodeID(to)}
}

func TestValidateKeepsConnectedNodes(t *testing.T) {
	data, err := Validate(ids(1, 2, 3), []Edge{edge(1, 2), edge(3, 2)})
	require.NoError(t, err)

	assert.Equal(t, ids(1, 2, 3), data.NodeIDs())
	assert.Equal(t, []Edge{edge(1, 2), edge(3, 2)}, data.Edges())
	assert.Empty(t, data.Dropped())
	assert.Equal(t, 3, data.Len())
}

func TestValidateRejectsDanglingEdges(t *testing.T) {
	_, err := Validate(ids(1, 2), []Edge{edge(1, 2), edge(3, 4), edge(2, 5)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDanglingEdges)

	var derr *DataError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, ids(3, 4, 5), derr.IDs, "every unknown endpoint is reported")
	assert.ErrorContains(t, err, "[3, 4, 5]")
}

func TestValidateDropsOrphans(t *testing.T) {
	data, err := Validate(ids(1, 2, 100, 99), []Edge{edge(1, 2)})
	require.NoError(t, err)

	assert.Equal(t, ids(1, 2), data.NodeIDs())
	assert.Equal(t, ids(99, 100), data.Dropped())
}

func TestValidateRejectsEmptyInput(t *testing.T) {
	_, err := Validate(nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyData)
}

func TestValidateRejectsAllOrphans(t *testing.T) {
	// Nodes with no edges at all leave nothing connected.
	_, err := Validate(ids(5, 6), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyData)
}

func TestValidateCollapsesDuplicateNodes(t *testing.T) {
	data, err := Validate(ids(2, 1, 2, 1), []Edge{edge(1, 2)})
	require.NoError(t, err)

	assert.Equal(t, ids(1, 2), data.NodeIDs())
}

func TestValidateKeepsDuplicateEdges(t *testing.T) {
	// Deduplication is the builder's job; validation only checks shape.
	data, err := Validate(ids(1, 2), []Edge{edge(1, 2), edge(1, 2)})
	require.NoError(t, err)

	assert.Len(t, data.Edges(), 2)
}

func TestValidateEdgesInfersNodes(t *testing.T) {
	data, err := ValidateEdges([]Edge{edge(7, 2), edge(2, 5)})
	require.NoError(t, err)

	assert.Equal(t, ids(2, 5, 7), data.NodeIDs())
	assert.Empty(t, data.Dropped())
}

func TestValidateEdgesRejectsEmpty(t *testing.T) {
	_, err := ValidateEdges(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyData)
}
