// Package light stores 4-bit light levels for chunk columns.
//
// A Section covers 16×16×16 blocks and keeps either a single constant level
// or a dense array of 256 words, one per (x,z) column, each packing sixteen
// y nibbles. Sections switch between the two forms on their own as levels
// change, so callers never see which one is active.
package light

import "sync"

const (
	// MaxLevel is the brightest light level.
	MaxLevel = 15

	sectionColumns = 16 * 16
	sectionVolume  = 16 * 16 * 16

	denseMarker int8 = -1
)

// Section holds the light levels of one 16×16×16 chunk section.
// It is safe for concurrent use.
type Section struct {
	mu       sync.Mutex
	pool     *Pool
	constant int8 // level of every cell, or denseMarker when data is authoritative
	data     *[sectionColumns]uint64
	counts   [16]uint16 // counts[level] = cells holding level
}

// NewSection creates a section where every cell holds initial.
// A nil pool selects DefaultPool.
func NewSection(pool *Pool, initial int) *Section {
	if pool == nil {
		pool = DefaultPool
	}
	initial &= MaxLevel
	s := &Section{pool: pool, constant: int8(initial)}
	s.counts[initial] = sectionVolume
	return s
}

// Get returns the light level at local coordinates. Only the low four bits
// of x, y and z are used.
func (s *Section) Get(x, y, z int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.constant >= 0 {
		return int(s.constant)
	}
	return nibble(s.data[columnIndex(x, z)], y)
}

// Set stores level at local coordinates. Only the low four bits of x, y, z
// and level are used.
func (s *Section) Set(x, y, z, level int) {
	level &= MaxLevel

	s.mu.Lock()
	defer s.mu.Unlock()

	old := -1
	if s.constant >= 0 {
		old = int(s.constant)
		if old == level {
			return
		}
		s.promote()
	}

	idx := columnIndex(x, z)
	word := s.data[idx]
	if old < 0 {
		old = nibble(word, y)
		if old == level {
			return
		}
	}

	shift := uint(y&15) << 2
	word &^= uint64(MaxLevel) << shift
	word |= uint64(level) << shift
	s.data[idx] = word

	s.counts[old]--
	s.counts[level]++
	if s.counts[level] == sectionVolume {
		s.demote(level)
	}
}

// IsConstant reports whether the section is in constant form.
func (s *Section) IsConstant() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.constant >= 0
}

// ConstantValue returns the constant level, or -1 while in dense form.
func (s *Section) ConstantValue() int8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.constant
}

// Counts returns the per-level cell counts.
func (s *Section) Counts() [16]uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts
}

// promote switches to dense form, filling every nibble with the constant.
// Caller holds s.mu.
func (s *Section) promote() {
	s.data = s.pool.Acquire()

	payload := uint64(s.constant)
	payload |= payload << 4
	payload |= payload << 8
	payload |= payload << 16
	payload |= payload << 32
	for i := range s.data {
		s.data[i] = payload
	}
	s.constant = denseMarker
}

// demote switches back to constant form and returns the dense array to the pool.
// Caller holds s.mu.
func (s *Section) demote(level int) {
	s.constant = int8(level)
	s.pool.Release(s.data)
	s.data = nil
}

func columnIndex(x, z int) int {
	return (z&15)<<4 | x&15
}

func nibble(word uint64, y int) int {
	return int(word>>(uint(y&15)<<2)) & MaxLevel
}
