package terrain

import (
	"context"

	"github.com/gammazero/deque"

	"github.com/OCharnyshevich/lodgen/internal/light"
	"github.com/OCharnyshevich/lodgen/internal/worldgen"
)

// LightEngine computes sky and block light for a generated chunk by flood
// fill. Light does not cross chunk borders; neighbours count as dark.
type LightEngine struct {
	hasSkyLight bool
}

// NewLightEngine creates a light engine. Without sky light only block light
// is computed.
func NewLightEngine(hasSkyLight bool) *LightEngine {
	return &LightEngine{hasSkyLight: hasSkyLight}
}

type lightNode struct{ x, y, z int }

var lightDirs = [6][3]int{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// Light fills the chunk's light storages. Chunks already carrying correct
// light are left untouched.
func (e *LightEngine) Light(ctx context.Context, _ *worldgen.Region, c *worldgen.Chunk, wasLightCorrect bool) (bool, error) {
	if wasLightCorrect {
		return false, nil
	}
	if e.hasSkyLight {
		if err := e.skyLight(ctx, c); err != nil {
			return false, err
		}
	}
	if err := e.blockLight(ctx, c); err != nil {
		return false, err
	}
	return true, nil
}

func (e *LightEngine) skyLight(ctx context.Context, c *worldgen.Chunk) error {
	sky := c.SkyLight()
	var q deque.Deque[lightNode]

	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			h := c.Height(x, z)
			for y := h + 1; y < c.MaxY; y++ {
				sky.Set(x, y, z, light.MaxLevel)
			}
			// Open sky next to a taller neighbour column spreads sideways.
			top := h + 1
			for _, d := range lightDirs {
				nx, nz := x+d[0], z+d[2]
				if d[1] != 0 || nx < 0 || nx >= 16 || nz < 0 || nz >= 16 {
					continue
				}
				top = max(top, c.Height(nx, nz))
			}
			for y := h + 1; y <= top && y < c.MaxY; y++ {
				q.PushBack(lightNode{x, y, z})
			}
		}
	}
	return propagate(ctx, c, sky, &q, true)
}

func (e *LightEngine) blockLight(ctx context.Context, c *worldgen.Chunk) error {
	blk := c.BlockLight()
	var q deque.Deque[lightNode]

	for i := 0; i < c.SectionCount(); i++ {
		sec := c.Section(i)
		if sec == nil {
			continue
		}
		baseY := c.MinY + i*16
		for idx, state := range sec.Blocks {
			level := Emission(state)
			if level == 0 {
				continue
			}
			x, y, z := idx&0xF, baseY+idx>>8, (idx>>4)&0xF
			blk.Set(x, y, z, level)
			q.PushBack(lightNode{x, y, z})
		}
	}
	return propagate(ctx, c, blk, &q, false)
}

// propagate spreads light from the queued nodes until nothing brightens.
func propagate(ctx context.Context, c *worldgen.Chunk, st *light.Storage, q *deque.Deque[lightNode], sky bool) error {
	for n := 0; q.Len() > 0; n++ {
		if n&0xFFF == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		node := q.PopFront()
		level := st.Get(node.x, node.y, node.z)
		if level <= 1 {
			continue
		}
		for _, d := range lightDirs {
			nx, ny, nz := node.x+d[0], node.y+d[1], node.z+d[2]
			if nx < 0 || nx >= 16 || nz < 0 || nz >= 16 || !c.InRange(ny) {
				continue
			}
			op := Opacity(c.GetBlock(nx, ny, nz))
			next := level - max(1, op)
			// Full sky light falls straight down through clear blocks.
			if sky && d[1] == -1 && level == light.MaxLevel && op == 0 {
				next = light.MaxLevel
			}
			if next <= 0 || next <= st.Get(nx, ny, nz) {
				continue
			}
			st.Set(nx, ny, nz, next)
			q.PushBack(lightNode{nx, ny, nz})
		}
	}
	return nil
}
