package terrain

import "github.com/ojrac/opensimplex-go"

// Noise produces deterministic simplex noise from a seed.
// Output is in the range [-1, 1].
type Noise struct {
	n opensimplex.Noise
}

// NewNoise creates a noise source for seed.
func NewNoise(seed int64) *Noise {
	return &Noise{n: opensimplex.New(seed)}
}

// Noise2D returns 2D noise for the given coordinates.
func (ng *Noise) Noise2D(x, y float64) float64 { return ng.n.Eval2(x, y) }

// Noise3D returns 3D noise for the given coordinates.
func (ng *Noise) Noise3D(x, y, z float64) float64 { return ng.n.Eval3(x, y, z) }

// OctaveNoise2D layers multiple octaves of 2D noise for natural-looking terrain.
// Returns a value roughly in [-1, 1].
func (ng *Noise) OctaveNoise2D(x, y float64, octaves int, persistence float64) float64 {
	var total, maxVal float64
	frequency, amplitude := 1.0, 1.0

	for range octaves {
		total += ng.Noise2D(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2.0
	}
	return total / maxVal
}

// OctaveNoise3D layers multiple octaves of 3D noise.
func (ng *Noise) OctaveNoise3D(x, y, z float64, octaves int, persistence float64) float64 {
	var total, maxVal float64
	frequency, amplitude := 1.0, 1.0

	for range octaves {
		total += ng.Noise3D(x*frequency, y*frequency, z*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2.0
	}
	return total / maxVal
}
