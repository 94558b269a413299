package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, mean(nil))
	assert.Equal(t, 100.0, mean([]float64{100, 110, 95, 105, 90}))
	assert.Equal(t, 2.5, mean([]float64{1, 4}))
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, median(nil))
	assert.Equal(t, 100.0, median([]float64{110, 100, 90}))
	assert.Equal(t, 102.5, median([]float64{110, 100, 105, 90}))
	assert.Equal(t, 7.0, median([]float64{7}))
}

func TestMedianDoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	median(values)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestSampleStdDev(t *testing.T) {
	values := []float64{100, 110, 95, 105, 90}
	avg := mean(values)
	assert.InDelta(t, 7.9057, sampleStdDev(values, avg), 0.0001)

	assert.Equal(t, 0.0, sampleStdDev([]float64{42}, 42))
	assert.Equal(t, 0.0, sampleStdDev(nil, 0))
	assert.Equal(t, 0.0, sampleStdDev([]float64{5, 5, 5}, 5))
}
