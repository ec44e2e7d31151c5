package terrain

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/OCharnyshevich/lodgen/internal/light"
	"github.com/OCharnyshevich/lodgen/internal/worldgen"
)

const (
	testMinY = -64
	testMaxY = 320
)

// generateChunk runs every step of g on the chunk at pos inside a 3x3 region.
func generateChunk(t *testing.T, g Terrain, pos worldgen.ChunkPos) *worldgen.Chunk {
	t.Helper()
	pool := light.NewPool(8)
	r := worldgen.NewRegion(pos.X-1, pos.Z-1, 3, func(p worldgen.ChunkPos) *worldgen.Chunk {
		return worldgen.NewChunk(p, testMinY, testMaxY, pool)
	})
	r.SetState(g.NewState(r))
	c := r.Chunk(pos.X, pos.Z)
	for _, step := range g.Steps() {
		if err := step.Run(context.Background(), r, c); err != nil {
			t.Fatalf("stage %s: %v", step.Stage, err)
		}
		c.SetStage(step.Stage)
	}
	return c
}

func sameBlocks(a, b *worldgen.Chunk) bool {
	for i := 0; i < a.SectionCount(); i++ {
		sa, sb := a.Section(i), b.Section(i)
		if (sa == nil) != (sb == nil) {
			return false
		}
		if sa != nil && sa.Blocks != sb.Blocks {
			return false
		}
	}
	return true
}

func TestGeneratorDeterministic(t *testing.T) {
	c1 := generateChunk(t, NewGenerator(42), worldgen.ChunkPos{})
	c2 := generateChunk(t, NewGenerator(42), worldgen.ChunkPos{})

	if !sameBlocks(c1, c2) {
		t.Fatal("blocks differ for the same seed")
	}
	if c1.Biomes != c2.Biomes {
		t.Fatal("biomes differ")
	}
	if c1.Heights != c2.Heights {
		t.Fatal("heights differ")
	}
}

func TestGeneratorDifferentSeeds(t *testing.T) {
	c1 := generateChunk(t, NewGenerator(1), worldgen.ChunkPos{})
	c2 := generateChunk(t, NewGenerator(2), worldgen.ChunkPos{})
	if sameBlocks(c1, c2) {
		t.Error("different seeds should produce different terrain")
	}
}

func TestGeneratorBedrockAtFloor(t *testing.T) {
	g := NewGenerator(12345)
	for cx := -1; cx <= 1; cx++ {
		for cz := -1; cz <= 1; cz++ {
			c := generateChunk(t, g, worldgen.ChunkPos{X: cx, Z: cz})
			for x := 0; x < 16; x++ {
				for z := 0; z < 16; z++ {
					if block := c.GetBlock(x, testMinY, z); block != blockBedrock<<4 {
						t.Fatalf("chunk(%d,%d) block at (%d,%d,%d) = %d, want bedrock", cx, cz, x, testMinY, z, block)
					}
				}
			}
		}
	}
}

func TestGeneratorHeightReasonable(t *testing.T) {
	g := NewGenerator(999)
	h := g.HeightAt(0, 0)
	if h < 1 || h > 250 {
		t.Errorf("HeightAt(0,0) = %d, want 1..250", h)
	}

	c := generateChunk(t, g, worldgen.ChunkPos{})
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			top := c.Height(x, z)
			if top < testMinY || top >= testMaxY {
				t.Fatalf("Height(%d,%d) = %d out of range", x, z, top)
			}
			if c.GetBlock(x, top, z) == blockAir {
				t.Fatalf("Height(%d,%d) = %d points at air", x, z, top)
			}
			if top < testMaxY-1 && c.GetBlock(x, top+1, z) != blockAir {
				t.Fatalf("block above Height(%d,%d) is not air", x, z)
			}
		}
	}
}

func TestFlatLayers(t *testing.T) {
	c := generateChunk(t, NewFlat(0), worldgen.ChunkPos{})

	tests := []struct {
		y     int
		block uint16
		name  string
	}{
		{0, blockBedrock << 4, "bedrock"},
		{1, blockStone << 4, "stone"},
		{2, blockStone << 4, "stone"},
		{3, blockDirt << 4, "dirt"},
		{4, blockGrass << 4, "grass"},
		{5, 0, "air"},
	}
	for _, tt := range tests {
		if got := c.GetBlock(0, tt.y, 0); got != tt.block {
			t.Errorf("y=%d: got %d, want %d (%s)", tt.y, got, tt.block, tt.name)
		}
	}
	if got := c.Height(7, 7); got != 4 {
		t.Errorf("Height(7,7) = %d, want 4", got)
	}
	if got := c.Biome(3, 3); got != biomePlains {
		t.Errorf("Biome(3,3) = %d, want plains", got)
	}
}

func TestNewGeneratorByName(t *testing.T) {
	for _, name := range []string{"", "default", "flat"} {
		if _, err := New(name, 1); err != nil {
			t.Errorf("New(%q): %v", name, err)
		}
	}
	if _, err := New("amplified", 1); err == nil {
		t.Error("New(amplified) succeeded, want error")
	}
}

func TestStructureReferences(t *testing.T) {
	g := NewGenerator(7)
	// Find a chunk with a start whose footprint spills into a neighbour.
	var start worldgen.StructureStart
	var owner worldgen.ChunkPos
	found := false
	for cx := 0; cx < 200 && !found; cx++ {
		for cz := 0; cz < 200 && !found; cz++ {
			pos := worldgen.ChunkPos{X: cx, Z: cz}
			for _, s := range g.structures.StartsIn(pos) {
				if s.X&0xF <= 1 {
					start, owner, found = s, pos, true
				}
			}
		}
	}
	if !found {
		t.Skip("no structure near a chunk edge for this seed")
	}

	west := worldgen.ChunkPos{X: owner.X - 1, Z: owner.Z}
	if !touches(start, west) {
		t.Fatalf("start %+v should reach into %s", start, west)
	}
	c := generateChunk(t, g, west)
	referenced := false
	for _, p := range c.References {
		if p == owner {
			referenced = true
		}
	}
	if !referenced {
		t.Errorf("chunk %s References = %v, want %s", west, c.References, owner)
	}
}

func TestStructureCacheReset(t *testing.T) {
	calls := 0
	p := NewStructurePlanner(3, func(int, int) int { calls++; return 100 })
	sc := newStructureCache(p)
	for cx := 0; cx < 64; cx++ {
		sc.startsIn(worldgen.ChunkPos{X: cx})
	}
	first := calls
	for cx := 0; cx < 64; cx++ {
		sc.startsIn(worldgen.ChunkPos{X: cx})
	}
	if calls != first {
		t.Errorf("cached lookups called heightAt %d more times", calls-first)
	}
	sc.Reset()
	if len(sc.starts) != 0 {
		t.Errorf("Reset left %d entries", len(sc.starts))
	}
}

func TestEnvironmentGeneratesLitChunks(t *testing.T) {
	env, err := NewEnvironment(Options{
		Generator:   "default",
		Seed:        5,
		MinY:        testMinY,
		MaxY:        testMaxY,
		HasSkyLight: true,
		Pool:        light.NewPool(32),
	})
	if err != nil {
		t.Fatalf("NewEnvironment: %v", err)
	}
	s := worldgen.NewScheduler(worldgen.SchedulerConfig{Workers: 1}, env, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer s.Stop()

	var got []*worldgen.Chunk
	task, err := s.Submit(worldgen.ChunkPos{X: 2, Z: -3}, 1, worldgen.StageFull, func(c *worldgen.Chunk) { got = append(got, c) })
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if status, err := task.Wait(ctx); err != nil || status != worldgen.StatusCompleted {
		t.Fatalf("Wait() = %s, %v (task err %v)", status, err, task.Err())
	}
	if len(got) != 1 {
		t.Fatalf("delivered %d chunks, want 1", len(got))
	}
	c := got[0]
	if c.Stage() != worldgen.StageFull || !c.IsLightCorrect() {
		t.Errorf("chunk at %s, light correct %v", c.Stage(), c.IsLightCorrect())
	}
	if lvl := c.SkyLight().Get(0, testMaxY-1, 0); lvl != 15 {
		t.Errorf("sky light at the top = %d, want 15", lvl)
	}
	if lvl := c.SkyLight().Get(0, testMinY, 0); lvl != 0 {
		t.Errorf("sky light in bedrock = %d, want 0", lvl)
	}
}

func TestNewEnvironmentUnknownGenerator(t *testing.T) {
	if _, err := NewEnvironment(Options{Generator: "nether", MinY: 0, MaxY: 256}); err == nil {
		t.Error("NewEnvironment with unknown generator succeeded")
	}
}
