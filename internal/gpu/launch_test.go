package gpu

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint32Args(t *testing.T) {
	got, err := uint32Args([]int{0, 3, 1000})
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 3, 1000}, got)

	_, err = uint32Args([]int{2, -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-1")

	if strconv.IntSize == 64 {
		// math.MaxInt exceeds uint32 only where int is 64 bits wide.
		_, err = uint32Args([]int{math.MaxInt})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not fit in uint32")
	}
}
