package terrain

import "testing"

func TestNoise2DDeterministic(t *testing.T) {
	ng1 := NewNoise(12345)
	ng2 := NewNoise(12345)

	for i := 0; i < 100; i++ {
		x := float64(i) * 0.1
		y := float64(i) * 0.2
		if ng1.Noise2D(x, y) != ng2.Noise2D(x, y) {
			t.Fatalf("Noise2D not deterministic at (%f, %f)", x, y)
		}
	}
}

func TestNoise3DDeterministic(t *testing.T) {
	ng1 := NewNoise(99)
	ng2 := NewNoise(99)

	for i := 0; i < 100; i++ {
		x := float64(i) * 0.15
		y := float64(i) * 0.25
		z := float64(i) * 0.35
		if ng1.Noise3D(x, y, z) != ng2.Noise3D(x, y, z) {
			t.Fatalf("Noise3D not deterministic at (%f, %f, %f)", x, y, z)
		}
	}
}

func TestOctaveNoiseRange(t *testing.T) {
	ng := NewNoise(42)

	for i := 0; i < 5000; i++ {
		x := float64(i)*0.37 - 500
		y := float64(i)*0.53 - 500
		if v := ng.OctaveNoise2D(x, y, 6, 0.5); v < -1.0 || v > 1.0 {
			t.Fatalf("OctaveNoise2D(%f, %f) = %f, out of [-1,1]", x, y, v)
		}
		if v := ng.OctaveNoise3D(x, y, x+y, 3, 0.5); v < -1.0 || v > 1.0 {
			t.Fatalf("OctaveNoise3D(%f, %f, %f) = %f, out of [-1,1]", x, y, x+y, v)
		}
	}
}

func TestSelectBiome(t *testing.T) {
	tests := []struct {
		temp, rain float64
		want       byte
	}{
		{0.1, 0.1, biomeTundra},
		{0.1, 0.5, biomeSnowyTaiga},
		{0.1, 0.9, biomeTaiga},
		{0.5, 0.1, biomePlains},
		{0.5, 0.5, biomeForest},
		{0.5, 0.9, biomeDarkForest},
		{1.0, 0.1, biomeSavanna},
		{1.0, 0.9, biomeJungle},
		{1.5, 0.1, biomeDesert},
		{1.5, 0.9, biomeJungle},
	}
	for _, tt := range tests {
		if got := selectBiome(tt.temp, tt.rain); got != tt.want {
			t.Errorf("selectBiome(%.1f, %.1f) = %d, want %d", tt.temp, tt.rain, got, tt.want)
		}
	}
}
