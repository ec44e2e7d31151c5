package terrain

import (
	"context"
	"testing"

	"github.com/OCharnyshevich/lodgen/internal/light"
	"github.com/OCharnyshevich/lodgen/internal/worldgen"
)

func stoneChunk(top int) *worldgen.Chunk {
	c := worldgen.NewChunk(worldgen.ChunkPos{}, 0, 64, light.NewPool(8))
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			for y := 0; y <= top; y++ {
				c.SetBlock(x, y, z, blockStone<<4)
			}
		}
	}
	c.RecomputeHeights()
	return c
}

func TestSkyLightOpenColumn(t *testing.T) {
	c := stoneChunk(20)
	e := NewLightEngine(true)
	recomputed, err := e.Light(context.Background(), nil, c, false)
	if err != nil || !recomputed {
		t.Fatalf("Light() = %v, %v", recomputed, err)
	}
	for _, y := range []int{21, 40, 63} {
		if got := c.SkyLight().Get(5, y, 5); got != 15 {
			t.Errorf("sky light at y=%d = %d, want 15", y, got)
		}
	}
	if got := c.SkyLight().Get(5, 10, 5); got != 0 {
		t.Errorf("sky light inside stone = %d, want 0", got)
	}
	if got := c.BlockLight().Get(5, 30, 5); got != 0 {
		t.Errorf("block light without emitters = %d, want 0", got)
	}
}

func TestSkyLightUnderOverhang(t *testing.T) {
	c := stoneChunk(10)
	// A roof over x in [0,8) at y=15 leaves x=8 open to the sky.
	for x := 0; x < 8; x++ {
		for z := 0; z < 16; z++ {
			c.SetBlock(x, 15, z, blockStone<<4)
		}
	}
	c.RecomputeHeights()
	NewLightEngine(true).Light(context.Background(), nil, c, false)

	if got := c.SkyLight().Get(8, 12, 3); got != 15 {
		t.Errorf("open column sky light = %d, want 15", got)
	}
	for x, want := range map[int]int{7: 14, 6: 13, 4: 11} {
		if got := c.SkyLight().Get(x, 12, 3); got != want {
			t.Errorf("sky light under roof at x=%d = %d, want %d", x, got, want)
		}
	}
}

func TestSkyLightThroughWater(t *testing.T) {
	c := stoneChunk(10)
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			for y := 11; y <= 14; y++ {
				c.SetBlock(x, y, z, blockWater<<4)
			}
		}
	}
	c.RecomputeHeights()
	NewLightEngine(true).Light(context.Background(), nil, c, false)

	if got := c.SkyLight().Get(8, 14, 8); got != 12 {
		t.Errorf("sky light in top water = %d, want 12", got)
	}
	if got := c.SkyLight().Get(8, 11, 8); got != 3 {
		t.Errorf("sky light in bottom water = %d, want 3", got)
	}
}

func TestBlockLightFromTorch(t *testing.T) {
	c := stoneChunk(0)
	c.SetBlock(8, 5, 8, blockTorch<<4)
	c.RecomputeHeights()

	NewLightEngine(false).Light(context.Background(), nil, c, false)

	tests := []struct {
		x, y, z int
		want    int
	}{
		{8, 5, 8, 14},
		{9, 5, 8, 13},
		{8, 8, 8, 11},
		{12, 5, 8, 10},
		{8, 0, 8, 0}, // stone floor
	}
	for _, tt := range tests {
		if got := c.BlockLight().Get(tt.x, tt.y, tt.z); got != tt.want {
			t.Errorf("block light at (%d,%d,%d) = %d, want %d", tt.x, tt.y, tt.z, got, tt.want)
		}
	}
	if got := c.SkyLight().Get(8, 30, 8); got != 0 {
		t.Errorf("sky light without sky = %d, want 0", got)
	}
}

func TestLightSkipsCorrectChunk(t *testing.T) {
	c := stoneChunk(5)
	recomputed, err := NewLightEngine(true).Light(context.Background(), nil, c, true)
	if err != nil || recomputed {
		t.Errorf("Light(wasLightCorrect=true) = %v, %v; want false, nil", recomputed, err)
	}
	if got := c.SkyLight().Get(0, 30, 0); got != 0 {
		t.Errorf("sky light written for a correct chunk: %d", got)
	}
}

func TestLightCancelled(t *testing.T) {
	c := stoneChunk(5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLightEngine(true).Light(ctx, nil, c, false); err == nil {
		t.Error("Light with a cancelled context succeeded")
	}
}

func TestOpacityAndEmission(t *testing.T) {
	if Opacity(blockAir) != 0 || Opacity(blockStone<<4) != 15 || Opacity(blockLeaves<<4|2) != 1 {
		t.Error("unexpected opacity table")
	}
	if Emission(blockLava<<4) != 15 || Emission(blockTorch<<4) != 14 || Emission(blockStone<<4) != 0 {
		t.Error("unexpected emission table")
	}
	if Opacity(0xFFFF) != 15 || Emission(0xFFFF) != 0 {
		t.Error("unknown blocks should be opaque and dark")
	}
}
