package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleNeverFails(t *testing.T) {
	s := NewSampler()

	u := s.Sample()

	assert.GreaterOrEqual(t, u.CPUPercent, 0.0)
	// The test process itself has resident memory.
	assert.Greater(t, u.MemoryMB, 0.0)
}

func TestSampleWithNilProcess(t *testing.T) {
	s := &Sampler{}

	u := s.Sample()

	assert.Zero(t, u.CPUPercent)
	assert.Zero(t, u.MemoryMB)
	assert.Nil(t, u.GPUPercent)
}
