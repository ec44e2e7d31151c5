package worldgen

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Event names recorded by the generation pipeline, in report order.
var perfEventNames = []string{
	"setup",
	"structStart",
	"structRef",
	"biome",
	"noise",
	"surface",
	"carver",
	"feature",
	"light",
	"cleanup",
}

// TimedEvent is one named span of a StageTimer.
type TimedEvent struct {
	Name     string
	Duration time.Duration
}

// StageTimer splits a task's runtime into consecutive named spans.
// It is used by a single worker; String may be called from others.
type StageTimer struct {
	mu      sync.Mutex
	events  []TimedEvent
	current string
	start   time.Time
	created time.Time
	done    bool
}

// NewStageTimer starts a timer whose first span is named first.
func NewStageTimer(first string) *StageTimer {
	now := time.Now()
	return &StageTimer{current: first, start: now, created: now}
}

// Next closes the current span and opens a new one.
func (t *StageTimer) Next(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	now := time.Now()
	t.events = append(t.events, TimedEvent{Name: t.current, Duration: now.Sub(t.start)})
	t.current = name
	t.start = now
}

// Complete closes the current span.
func (t *StageTimer) Complete() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.events = append(t.events, TimedEvent{Name: t.current, Duration: time.Since(t.start)})
	t.done = true
}

// Events returns the closed spans.
func (t *StageTimer) Events() []TimedEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TimedEvent, len(t.events))
	copy(out, t.events)
	return out
}

// Total returns the summed duration of the closed spans.
func (t *StageTimer) Total() time.Duration {
	var total time.Duration
	for _, e := range t.Events() {
		total += e.Duration
	}
	return total
}

func (t *StageTimer) String() string {
	events := t.Events()
	var sb strings.Builder
	var total time.Duration
	for _, e := range events {
		total += e.Duration
	}
	fmt.Fprintf(&sb, "total: %s", total)
	for _, e := range events {
		fmt.Fprintf(&sb, ", %s: %s", e.Name, e.Duration)
	}
	return sb.String()
}

// rolling keeps the average of the last n samples.
type rolling struct {
	samples []time.Duration
	next    int
	full    bool
	sum     time.Duration
}

func newRolling(n int) *rolling { return &rolling{samples: make([]time.Duration, n)} }

func (r *rolling) add(d time.Duration) {
	r.sum -= r.samples[r.next]
	r.samples[r.next] = d
	r.sum += d
	r.next++
	if r.next == len(r.samples) {
		r.next = 0
		r.full = true
	}
}

func (r *rolling) average() time.Duration {
	n := r.next
	if r.full {
		n = len(r.samples)
	}
	if n == 0 {
		return 0
	}
	return r.sum / time.Duration(n)
}

// PerfWindow is the number of tasks averaged by a PerfCalculator.
const PerfWindow = 50

// PerfCalculator keeps rolling per-span averages over finished tasks.
// It is safe for concurrent use.
type PerfCalculator struct {
	mu    sync.Mutex
	total *rolling
	spans map[string]*rolling
}

// NewPerfCalculator creates an empty calculator.
func NewPerfCalculator() *PerfCalculator {
	p := &PerfCalculator{
		total: newRolling(PerfWindow),
		spans: make(map[string]*rolling, len(perfEventNames)),
	}
	for _, name := range perfEventNames {
		p.spans[name] = newRolling(PerfWindow)
	}
	return p
}

// Record adds a finished task's spans. Unknown span names are ignored.
func (p *PerfCalculator) Record(t *StageTimer) {
	events := t.Events()
	p.mu.Lock()
	defer p.mu.Unlock()
	var total time.Duration
	for _, e := range events {
		total += e.Duration
		if r, ok := p.spans[e.Name]; ok {
			r.add(e.Duration)
		}
	}
	p.total.add(total)
}

// Average returns the rolling average of a span, or of the whole task when
// name is "total".
func (p *PerfCalculator) Average(name string) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if name == "total" {
		return p.total.average()
	}
	if r, ok := p.spans[name]; ok {
		return r.average()
	}
	return 0
}

func (p *PerfCalculator) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var sb strings.Builder
	fmt.Fprintf(&sb, "total: %s", p.total.average())
	for _, name := range perfEventNames {
		avg := p.spans[name].average()
		if avg == 0 {
			continue
		}
		fmt.Fprintf(&sb, ", %s: %s", name, avg)
	}
	return sb.String()
}
