// Package lod builds level-of-detail column summaries from generated chunks.
package lod

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/OCharnyshevich/lodgen/internal/worldgen"
)

const (
	columnsVersion = 1
	headerBytes    = 4 + 1 + 4 + 4 + 2 + 2 + 1 // magic, version, x, z, minY, maxY, stage
	columnBytes    = 2 + 2 + 1 + 1             // height, state, biome, light
	encodedBytes   = headerBytes + 256*columnBytes
)

var columnsMagic = [4]byte{'L', 'O', 'D', 'C'}

// ErrBadEncoding is returned when decoding data that is not a Columns
// encoding.
var ErrBadEncoding = errors.New("bad lod columns encoding")

// Column is the LOD summary of one block column.
type Column struct {
	Height     int16  // highest non-air y, MinY-1 when the column is empty
	State      uint16 // block state at Height
	Biome      byte
	SkyLight   uint8 // light in the block above the surface
	BlockLight uint8
}

// Columns is the LOD summary of a chunk. Index = z*16 + x.
type Columns struct {
	Pos   worldgen.ChunkPos
	MinY  int
	MaxY  int
	Stage worldgen.Stage
	Cols  [256]Column
}

// BuildColumns summarises a generated chunk.
func BuildColumns(c *worldgen.Chunk) *Columns {
	out := &Columns{Pos: c.Pos, MinY: c.MinY, MaxY: c.MaxY, Stage: c.Stage()}
	sky, blk := c.SkyLight(), c.BlockLight()
	for z := 0; z < 16; z++ {
		for x := 0; x < 16; x++ {
			h := c.Height(x, z)
			out.Cols[z*16+x] = Column{
				Height:     int16(h),
				State:      c.GetBlock(x, h, z),
				Biome:      c.Biome(x, z),
				SkyLight:   uint8(sky.Get(x, h+1, z)),
				BlockLight: uint8(blk.Get(x, h+1, z)),
			}
		}
	}
	return out
}

// Column returns the summary of column x, z.
func (c *Columns) Column(x, z int) Column { return c.Cols[(z&0xF)*16+x&0xF] }

// MarshalBinary encodes the columns in a fixed little-endian layout.
func (c *Columns) MarshalBinary() ([]byte, error) {
	buf := make([]byte, encodedBytes)
	copy(buf, columnsMagic[:])
	buf[4] = columnsVersion
	binary.LittleEndian.PutUint32(buf[5:], uint32(int32(c.Pos.X)))
	binary.LittleEndian.PutUint32(buf[9:], uint32(int32(c.Pos.Z)))
	binary.LittleEndian.PutUint16(buf[13:], uint16(int16(c.MinY)))
	binary.LittleEndian.PutUint16(buf[15:], uint16(int16(c.MaxY)))
	buf[17] = byte(c.Stage)

	off := headerBytes
	for _, col := range c.Cols {
		binary.LittleEndian.PutUint16(buf[off:], uint16(col.Height))
		binary.LittleEndian.PutUint16(buf[off+2:], col.State)
		buf[off+4] = col.Biome
		buf[off+5] = col.SkyLight<<4 | col.BlockLight&0xF
		off += columnBytes
	}
	return buf, nil
}

// UnmarshalBinary decodes data produced by MarshalBinary.
func (c *Columns) UnmarshalBinary(data []byte) error {
	if len(data) != encodedBytes {
		return fmt.Errorf("%w: %d bytes, want %d", ErrBadEncoding, len(data), encodedBytes)
	}
	if [4]byte(data[:4]) != columnsMagic {
		return fmt.Errorf("%w: bad magic", ErrBadEncoding)
	}
	if data[4] != columnsVersion {
		return fmt.Errorf("%w: version %d", ErrBadEncoding, data[4])
	}
	c.Pos = worldgen.ChunkPos{
		X: int(int32(binary.LittleEndian.Uint32(data[5:]))),
		Z: int(int32(binary.LittleEndian.Uint32(data[9:]))),
	}
	c.MinY = int(int16(binary.LittleEndian.Uint16(data[13:])))
	c.MaxY = int(int16(binary.LittleEndian.Uint16(data[15:])))
	c.Stage = worldgen.Stage(data[17])

	off := headerBytes
	for i := range c.Cols {
		c.Cols[i] = Column{
			Height:     int16(binary.LittleEndian.Uint16(data[off:])),
			State:      binary.LittleEndian.Uint16(data[off+2:]),
			Biome:      data[off+4],
			SkyLight:   data[off+5] >> 4,
			BlockLight: data[off+5] & 0xF,
		}
		off += columnBytes
	}
	return nil
}
