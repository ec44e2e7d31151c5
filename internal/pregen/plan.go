// Package pregen drives batch generation of LOD data over a square area.
package pregen

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/OCharnyshevich/lodgen/internal/worldgen"
)

// Batch is a Size×Size square of chunks with lowest corner Origin.
type Batch struct {
	Origin worldgen.ChunkPos
	Size   int
}

// Center returns the middle chunk of the batch.
func (b Batch) Center() worldgen.ChunkPos {
	return worldgen.ChunkPos{X: b.Origin.X + b.Size/2, Z: b.Origin.Z + b.Size/2}
}

// Chunks returns every chunk position of the batch.
func (b Batch) Chunks() []worldgen.ChunkPos {
	out := make([]worldgen.ChunkPos, 0, b.Size*b.Size)
	for dz := 0; dz < b.Size; dz++ {
		for dx := 0; dx < b.Size; dx++ {
			out = append(out, worldgen.ChunkPos{X: b.Origin.X + dx, Z: b.Origin.Z + dz})
		}
	}
	return out
}

func (b Batch) String() string { return fmt.Sprintf("%d@%s", b.Size, b.Origin) }

// Plan tiles the square of chunks within radius of center with batches of
// the given width. Even widths are grown by one. The first batch is centred
// on center and the rest follow nearest first.
func Plan(center worldgen.ChunkPos, radius, size int) []Batch {
	if size < 1 || radius < 0 {
		return nil
	}
	if size%2 == 0 {
		size++
	}
	half := size / 2
	n := 0
	if radius > half {
		n = (radius - half + size - 1) / size
	}

	batches := make([]Batch, 0, (2*n+1)*(2*n+1))
	for kz := -n; kz <= n; kz++ {
		for kx := -n; kx <= n; kx++ {
			batches = append(batches, Batch{
				Origin: worldgen.ChunkPos{X: center.X + kx*size - half, Z: center.Z + kz*size - half},
				Size:   size,
			})
		}
	}
	slices.SortStableFunc(batches, func(a, b Batch) int {
		da, db := ring(a.Center(), center), ring(b.Center(), center)
		if c := cmp.Compare(da, db); c != 0 {
			return c
		}
		return cmp.Compare(dist2(a.Center(), center), dist2(b.Center(), center))
	})
	return batches
}

func ring(p, c worldgen.ChunkPos) int {
	return max(abs(p.X-c.X), abs(p.Z-c.Z))
}

func dist2(p, c worldgen.ChunkPos) int {
	dx, dz := p.X-c.X, p.Z-c.Z
	return dx*dx + dz*dz
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
