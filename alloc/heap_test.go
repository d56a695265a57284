package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapAllocateZeroed(t *testing.T) {
	h := NewHeap(7)
	assert.EqualValues(t, 7, h.Tag())

	data, err := h.Allocate(64)
	require.NoError(t, err)
	require.Len(t, data, 64)
	for _, b := range data {
		assert.Zero(t, b)
	}
	assert.EqualValues(t, 64, h.AllocatedBytes())

	h.Free(data)
	assert.EqualValues(t, 0, h.AllocatedBytes())
}

func TestHeapAllocateNegative(t *testing.T) {
	h := NewHeap(0)
	_, err := h.Allocate(-1)
	assert.Error(t, err)
}
