package light

import "sync"

// Storage holds the light levels of one chunk column between MinY
// (inclusive) and MaxY (exclusive). Sections are allocated on first write;
// unwritten positions read as 0. Positions below MinY read as 0 and positions
// at or above MaxY read as MaxLevel (open sky above the build limit).
type Storage struct {
	pool *Pool
	minY int
	maxY int

	mu       sync.RWMutex
	sections []*Section
}

// NewStorage creates an empty Storage for the Y range [minY, maxY).
// A nil pool selects DefaultPool.
func NewStorage(pool *Pool, minY, maxY int) *Storage {
	if pool == nil {
		pool = DefaultPool
	}
	if maxY < minY {
		maxY = minY
	}
	return &Storage{pool: pool, minY: minY, maxY: maxY}
}

// MinY returns the lowest stored block Y (inclusive).
func (s *Storage) MinY() int { return s.minY }

// MaxY returns the block Y bound (exclusive).
func (s *Storage) MaxY() int { return s.maxY }

// SectionCount returns the number of 16-block sections covering the Y range.
func (s *Storage) SectionCount() int { return (s.maxY - s.minY + 15) >> 4 }

// Get returns the light level at chunk-local x, z and absolute y.
func (s *Storage) Get(x, y, z int) int {
	if y < s.minY {
		return 0
	}
	if y >= s.maxY {
		return MaxLevel
	}

	s.mu.RLock()
	var sec *Section
	if s.sections != nil {
		sec = s.sections[(y-s.minY)>>4]
	}
	s.mu.RUnlock()

	if sec == nil {
		return 0
	}
	return sec.Get(x, y, z)
}

// Set stores level at chunk-local x, z and absolute y. Writes outside the
// Y range are ignored.
func (s *Storage) Set(x, y, z, level int) {
	if y < s.minY || y >= s.maxY {
		return
	}
	s.section((y-s.minY)>>4).Set(x, y, z, level)
}

// Section returns the section at index i, or nil when it was never written.
func (s *Storage) Section(i int) *Section {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sections == nil || i < 0 || i >= len(s.sections) {
		return nil
	}
	return s.sections[i]
}

// section returns the section at index i, allocating it when missing.
func (s *Storage) section(i int) *Section {
	s.mu.RLock()
	if s.sections != nil {
		if sec := s.sections[i]; sec != nil {
			s.mu.RUnlock()
			return sec
		}
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sections == nil {
		s.sections = make([]*Section, s.SectionCount())
	}
	// Double-check after acquiring write lock.
	sec := s.sections[i]
	if sec == nil {
		sec = NewSection(s.pool, 0)
		s.sections[i] = sec
	}
	return sec
}
