package teletext

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// malformedJobs builds jobs whose data never matches cfg.LineLength, so every
// decode fails fast with a MalformedPacket error: enough to exercise Pool's
// fan-out and ordering without needing a real pattern matcher or capture.
func malformedJobs(n int) []Job {
	jobs := make([]Job, n)
	for i := range jobs {
		jobs[i] = Job{Ordinal: uint64(i), Data: []byte{byte(i)}}
	}
	return jobs
}

func runPool(t *testing.T, p *Pool, jobs []Job) []Result {
	t.Helper()

	ch := make(chan Job)
	go func() {
		defer close(ch)
		for _, j := range jobs {
			ch <- j
		}
	}()

	var results []Result
	for r := range p.Run(context.Background(), ch) {
		results = append(results, r)
	}
	return results
}

func Test_Pool_OrderedPreservesSubmissionOrder(t *testing.T) {
	cfg := &BT8x8PAL
	p := NewPool(cfg, NewPatternMatcher(cfg), WithWorkers(8), WithOrdered(true))

	results := runPool(t, p, malformedJobs(20))

	require.Len(t, results, 20)
	for i, r := range results {
		assert.Equal(t, uint64(i), r.Ordinal)

		var terr *Error
		require.ErrorAs(t, r.Err, &terr)
		assert.Equal(t, MalformedPacket, terr.Kind)
	}
}

// steppedJobs mirrors the ordinals LineSource.Next produces under --step N:
// non-contiguous, advancing by step each time.
func steppedJobs(n, step int) []Job {
	jobs := make([]Job, n)
	for i := range jobs {
		jobs[i] = Job{Ordinal: uint64(i * step), Data: []byte{byte(i)}}
	}
	return jobs
}

func Test_Pool_OrderedPreservesSubmissionOrder_NonContiguousOrdinals(t *testing.T) {
	cfg := &BT8x8PAL
	p := NewPool(cfg, NewPatternMatcher(cfg), WithWorkers(8), WithOrdered(true))

	jobs := steppedJobs(20, 3)
	results := runPool(t, p, jobs)

	require.Len(t, results, 20)
	for i, r := range results {
		assert.Equal(t, jobs[i].Ordinal, r.Ordinal)

		var terr *Error
		require.ErrorAs(t, r.Err, &terr)
		assert.Equal(t, MalformedPacket, terr.Kind)
	}
}

func Test_Pool_UnorderedDeliversEveryJobExactlyOnce(t *testing.T) {
	cfg := &BT8x8PAL
	p := NewPool(cfg, NewPatternMatcher(cfg), WithWorkers(8), WithOrdered(false))

	results := runPool(t, p, malformedJobs(20))

	require.Len(t, results, 20)
	seen := make(map[uint64]bool)
	for _, r := range results {
		seen[r.Ordinal] = true
	}
	assert.Len(t, seen, 20)
}

func Test_Pool_SingleWorkerStillCompletesEveryJob(t *testing.T) {
	cfg := &BT8x8PAL
	p := NewPool(cfg, NewPatternMatcher(cfg), WithWorkers(1))

	results := runPool(t, p, malformedJobs(5))
	assert.Len(t, results, 5)
}

func Test_SpeedMonitor_RateLimitsLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	m := NewSpeedMonitor(logger)

	m.Tick(true)
	m.Tick(false)
	assert.Empty(t, buf.String(), "no log expected before the rate-limit window elapses")

	time.Sleep(2100 * time.Millisecond)
	m.Tick(true)

	out := buf.String()
	assert.Contains(t, out, "decode throughput")
	assert.Contains(t, out, "lines_per_sec")
	assert.Contains(t, out, "accepted_pct")
}
