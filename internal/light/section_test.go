package light

import (
	"math/rand"
	"sync"
	"testing"
)

func countSum(c [16]uint16) int {
	sum := 0
	for _, n := range c {
		sum += int(n)
	}
	return sum
}

func checkCounts(t *testing.T, s *Section) {
	t.Helper()
	counts := s.Counts()
	if cv := s.ConstantValue(); cv >= 0 {
		if counts[cv] != sectionVolume {
			t.Fatalf("constant form: counts[%d] = %d, want %d", cv, counts[cv], sectionVolume)
		}
		return
	}
	if got := countSum(counts); got != sectionVolume {
		t.Fatalf("dense form: sum(counts) = %d, want %d", got, sectionVolume)
	}
}

func TestNewSectionConstant(t *testing.T) {
	s := NewSection(NewPool(4), 7)
	if !s.IsConstant() {
		t.Fatal("new section should be constant")
	}
	if got := s.ConstantValue(); got != 7 {
		t.Errorf("ConstantValue() = %d, want 7", got)
	}
	if got := s.Get(3, 9, 12); got != 7 {
		t.Errorf("Get(3,9,12) = %d, want 7", got)
	}
	checkCounts(t, s)
}

func TestSectionSetGetRandom(t *testing.T) {
	pool := NewPool(4)
	s := NewSection(pool, 0)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 20000; i++ {
		x, y, z := rng.Intn(16), rng.Intn(16), rng.Intn(16)
		level := rng.Intn(16)
		s.Set(x, y, z, level)
		if got := s.Get(x, y, z); got != level {
			t.Fatalf("step %d: Get(%d,%d,%d) = %d, want %d", i, x, y, z, got, level)
		}
		if i%997 == 0 {
			checkCounts(t, s)
		}
	}
	checkCounts(t, s)
}

func TestSectionCoordinatesMasked(t *testing.T) {
	s := NewSection(NewPool(1), 0)
	s.Set(17, -1, 32, 9) // same cell as (1, 15, 0)
	if got := s.Get(1, 15, 0); got != 9 {
		t.Errorf("Get(1,15,0) = %d, want 9", got)
	}
	if got := s.Get(-15, 31, 16); got != 9 {
		t.Errorf("Get(-15,31,16) = %d, want 9", got)
	}
	if got := s.Get(0, 15, 0); got != 0 {
		t.Errorf("Get(0,15,0) = %d, want 0", got)
	}
}

func TestSectionPromoteKeepsOldLevel(t *testing.T) {
	s := NewSection(NewPool(1), 11)
	s.Set(5, 5, 5, 2)

	if s.IsConstant() {
		t.Fatal("section should be dense after differing write")
	}
	if got := s.Get(5, 5, 5); got != 2 {
		t.Errorf("Get(5,5,5) = %d, want 2", got)
	}
	for _, p := range [][3]int{{0, 0, 0}, {15, 15, 15}, {5, 4, 5}, {5, 6, 5}} {
		if got := s.Get(p[0], p[1], p[2]); got != 11 {
			t.Errorf("Get(%v) = %d, want 11", p, got)
		}
	}
	counts := s.Counts()
	if counts[11] != sectionVolume-1 || counts[2] != 1 {
		t.Errorf("counts[11]=%d counts[2]=%d, want %d and 1", counts[11], counts[2], sectionVolume-1)
	}
}

func TestSectionFillCollapsesToConstant(t *testing.T) {
	tests := []struct {
		name    string
		initial int
		level   int
		order   func(rng *rand.Rand) []int
	}{
		{"sequential", 0, 15, func(*rand.Rand) []int { return seq() }},
		{"reverse", 3, 8, func(*rand.Rand) []int { return reverse(seq()) }},
		{"shuffled", 15, 0, func(rng *rand.Rand) []int {
			o := seq()
			rng.Shuffle(len(o), func(i, j int) { o[i], o[j] = o[j], o[i] })
			return o
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewPool(4)
			s := NewSection(pool, tt.initial)
			rng := rand.New(rand.NewSource(42))

			// Scatter noise first so the fill passes through dense form.
			for i := 0; i < 500; i++ {
				s.Set(rng.Intn(16), rng.Intn(16), rng.Intn(16), rng.Intn(16))
			}

			for _, i := range tt.order(rng) {
				s.Set(i&15, (i>>8)&15, (i>>4)&15, tt.level)
			}

			if !s.IsConstant() {
				t.Fatal("section should be constant after uniform fill")
			}
			if got := s.ConstantValue(); int(got) != tt.level {
				t.Errorf("ConstantValue() = %d, want %d", got, tt.level)
			}
			checkCounts(t, s)
			if pool.Len() != 1 {
				t.Errorf("pool.Len() = %d, want 1 (dense array returned)", pool.Len())
			}
		})
	}
}

func TestSectionSameLevelIsNoop(t *testing.T) {
	pool := NewPool(4)
	s := NewSection(pool, 4)

	// Constant form: no promotion, no pool traffic.
	s.Set(1, 2, 3, 4)
	if !s.IsConstant() {
		t.Fatal("same-level write promoted the section")
	}
	if st := pool.Stats(); st != (PoolStats{}) {
		t.Errorf("pool stats = %+v, want zero", st)
	}

	// Dense form: counts unchanged, no pool traffic.
	s.Set(0, 0, 0, 9)
	before := s.Counts()
	stats := pool.Stats()
	s.Set(0, 0, 0, 9)
	s.Set(1, 1, 1, 4)
	if after := s.Counts(); after != before {
		t.Errorf("counts changed: %v -> %v", before, after)
	}
	if got := pool.Stats(); got != stats {
		t.Errorf("pool stats changed: %+v -> %+v", stats, got)
	}
}

func TestSectionLevelMasked(t *testing.T) {
	s := NewSection(NewPool(1), 0)
	s.Set(0, 0, 0, 0x1F)
	if got := s.Get(0, 0, 0); got != 15 {
		t.Errorf("Get = %d, want 15", got)
	}
	checkCounts(t, s)
}

func TestSectionConcurrentWrites(t *testing.T) {
	pool := NewPool(8)
	s := NewSection(pool, 0)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			// Each worker owns two x columns.
			for i := 0; i < 512; i++ {
				x := w*2 + i&1
				s.Set(x, (i>>1)&15, (i>>5)&15, w+1)
			}
		}(w)
	}
	wg.Wait()

	for w := 0; w < 8; w++ {
		for i := 0; i < 512; i++ {
			x := w*2 + i&1
			if got := s.Get(x, (i>>1)&15, (i>>5)&15); got != w+1 {
				t.Fatalf("Get(%d,%d,%d) = %d, want %d", x, (i>>1)&15, (i>>5)&15, got, w+1)
			}
		}
	}
	checkCounts(t, s)
}

func seq() []int {
	o := make([]int, sectionVolume)
	for i := range o {
		o[i] = i
	}
	return o
}

func reverse(o []int) []int {
	for i, j := 0, len(o)-1; i < j; i, j = i+1, j-1 {
		o[i], o[j] = o[j], o[i]
	}
	return o
}
