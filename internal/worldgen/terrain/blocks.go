package terrain

// Block IDs matching Minecraft 1.8. A block state is id<<4 | metadata.
const (
	blockAir         = 0
	blockStone       = 1
	blockGrass       = 2
	blockDirt        = 3
	blockCobblestone = 4
	blockBedrock     = 7
	blockWater       = 9  // stationary water
	blockLava        = 11 // stationary lava
	blockSand        = 12
	blockGravel      = 13
	blockGoldOre     = 14
	blockIronOre     = 15
	blockCoalOre     = 16
	blockLog         = 17
	blockLeaves      = 18
	blockLapisOre    = 21
	blockSandstone   = 24
	blockTallGrass   = 31
	blockDeadBush    = 32
	blockFlower      = 38
	blockMossyCobble = 48
	blockTorch       = 50
	blockDiamondOre  = 56
	blockRedstoneOre = 73
	blockCactus      = 81
	blockGlowstone   = 89

	// Log variants (metadata).
	logOak    = 0
	logSpruce = 1
	logBirch  = 2

	// Leaves variants (metadata).
	leavesOak    = 0
	leavesSpruce = 1
	leavesBirch  = 2

	seaLevel = 62
)

// opacity is how much light a block absorbs, by block ID. Unlisted blocks
// are fully opaque.
var opacity = func() [256]uint8 {
	var t [256]uint8
	for i := range t {
		t[i] = 15
	}
	for _, id := range []int{blockAir, blockTallGrass, blockDeadBush, blockFlower, blockTorch, blockCactus, blockGlowstone} {
		t[id] = 0
	}
	t[blockLeaves] = 1
	t[blockWater] = 3
	return t
}()

// emission is the light level a block emits, by block ID.
var emission = [256]uint8{
	blockLava:      15,
	blockGlowstone: 15,
	blockTorch:     14,
}

// BlockID returns the block ID of a block state.
func BlockID(state uint16) int { return int(state >> 4) }

// Opacity returns how much light the block state absorbs, 0 to 15.
func Opacity(state uint16) int {
	id := BlockID(state)
	if id >= len(opacity) {
		return 15
	}
	return int(opacity[id])
}

// Emission returns the light level the block state emits, 0 to 15.
func Emission(state uint16) int {
	id := BlockID(state)
	if id >= len(emission) {
		return 0
	}
	return int(emission[id])
}
