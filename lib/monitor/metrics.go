package monitor

import "sync"

type cycleMetrics struct {
	mu sync.Mutex

	totalSelected int
	restocked     int
	soldOut       int
	unchanged     int
	skipped       int
	errored       int
}

func (m *cycleMetrics) Add(other *cycleMetrics) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restocked += other.restocked
	m.soldOut += other.soldOut
	m.unchanged += other.unchanged
	m.skipped += other.skipped
	m.errored += other.errored
}

func (m *cycleMetrics) logArgs() []any {
	args := make([]any, 0)
	if m.restocked != 0 {
		args = append(args, "restocked", m.restocked)
	}
	if m.soldOut != 0 {
		args = append(args, "sold_out", m.soldOut)
	}
	if m.unchanged != 0 {
		args = append(args, "unchanged", m.unchanged)
	}
	if m.skipped != 0 {
		args = append(args, "skipped", m.skipped)
	}
	if m.errored != 0 {
		args = append(args, "errored", m.errored)
	}
	return args
}
