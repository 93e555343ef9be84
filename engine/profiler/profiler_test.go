package profiler

import (
	"bytes"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTick_LogsOncePerInterval(t *testing.T) {
	now := time.Unix(100, 0)
	var out bytes.Buffer
	p := NewProfiler(
		WithLogger(common.NewWriterLogger("profiler", false, &out, &bytes.Buffer{})),
		WithClock(func() time.Time { return now }),
	)

	for i := 0; i < 49; i++ {
		now = now.Add(20 * time.Millisecond)
		assert.False(t, p.Tick(50))
	}
	now = now.Add(20 * time.Millisecond)
	require.True(t, p.Tick(50))

	assert.InDelta(t, 50, p.Last().FPS, 0.01)
	assert.Equal(t, float32(50), p.Last().LastFrameFPS)
	assert.Contains(t, out.String(), "[profiler] INFO: FPS: 50.00")

	now = now.Add(time.Second / 2)
	assert.False(t, p.Tick(2), "the counter restarts after a sample")
}
