package gputest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// recorder captures assertion failures instead of failing the enclosing test.
type recorder struct {
	testing.TB
	failures []string
}

func (r *recorder) Helper()      {}
func (r *recorder) Name() string { return "recorder" }

func (r *recorder) Errorf(format string, args ...any) {
	r.failures = append(r.failures, format)
}

func TestAssertClose(t *testing.T) {
	nan := float32(math.NaN())
	tests := []struct {
		name     string
		want     []float32
		got      []float32
		wantPass bool
	}{
		{"equal", []float32{1, 2}, []float32{1, 2}, true},
		{"within tolerance", []float32{1, 2}, []float32{1 + 1e-4, 2}, true},
		{"outside tolerance", []float32{1, 2}, []float32{1.01, 2}, false},
		{"NaN result", []float32{1, 2}, []float32{nan, 2}, false},
		{"NaN expected", []float32{nan, 2}, []float32{1, 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{}
			ok := AssertClose(r, MustMatrix(t, 1, 2, tt.want...), MustMatrix(t, 1, 2, tt.got...))
			assert.Equal(t, tt.wantPass, ok)
			assert.Equal(t, tt.wantPass, len(r.failures) == 0)
		})
	}
}

func TestAssertCloseShape(t *testing.T) {
	r := &recorder{}
	assert.False(t, AssertClose(r, MustMatrix(t, 1, 2), MustMatrix(t, 2, 1)))
	assert.NotEmpty(t, r.failures)
}
