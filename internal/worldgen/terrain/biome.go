package terrain

// Biome IDs matching Minecraft 1.8.
const (
	biomeOcean      byte = 0
	biomePlains     byte = 1
	biomeDesert     byte = 2
	biomeMountains  byte = 3 // extreme hills
	biomeForest     byte = 4
	biomeTaiga      byte = 5
	biomeTundra     byte = 12
	biomeBeach      byte = 16
	biomeJungle     byte = 21
	biomeDarkForest byte = 29
	biomeSnowyTaiga byte = 30
	biomeSavanna    byte = 35
)

// BiomeSource selects biomes using temperature/rainfall noise fields.
type BiomeSource struct {
	tempNoise *Noise
	rainNoise *Noise
	terrain   *Noise
}

// NewBiomeSource creates a BiomeSource from a seed.
func NewBiomeSource(seed int64) *BiomeSource {
	return &BiomeSource{
		tempNoise: NewNoise(seed + 100),
		rainNoise: NewNoise(seed + 200),
		terrain:   NewNoise(seed),
	}
}

// BiomeAt returns the biome ID at the given world block coordinates.
func (bs *BiomeSource) BiomeAt(bx, bz int) byte {
	tx := float64(bx) / 512.0
	tz := float64(bz) / 512.0
	temp := bs.tempNoise.OctaveNoise2D(tx, tz, 4, 0.5)*0.8 + 0.75
	rain := bs.rainNoise.OctaveNoise2D(tx+100, tz+100, 4, 0.5)*0.5 + 0.5

	// Low base terrain becomes ocean, terrain just under sea level beach.
	nx := float64(bx) / 128.0
	nz := float64(bz) / 128.0
	terrainHeight := 62.0 + bs.terrain.OctaveNoise2D(nx, nz, 6, 0.5)*8.0
	switch {
	case terrainHeight < float64(seaLevel)-8:
		return biomeOcean
	case terrainHeight < float64(seaLevel)-2:
		return biomeBeach
	}
	return selectBiome(temp, rain)
}

// selectBiome maps temperature and rainfall to a biome ID.
//
//	Temp\Rain     | Dry (<0.3)    | Medium (0.3-0.6) | Wet (>0.6)
//	Cold <0.3     | Tundra (12)   | Snowy Taiga (30)  | Taiga (5)
//	Mild 0.3-0.7  | Plains (1)    | Forest (4)        | Dark Forest (29)
//	Warm 0.7-1.2  | Savanna (35)  | Plains (1)        | Jungle (21)
//	Hot >1.2      | Desert (2)    | Desert (2)        | Jungle (21)
func selectBiome(temp, rain float64) byte {
	switch {
	case temp < 0.3:
		switch {
		case rain < 0.3:
			return biomeTundra
		case rain < 0.6:
			return biomeSnowyTaiga
		default:
			return biomeTaiga
		}
	case temp < 0.7:
		switch {
		case rain < 0.3:
			return biomePlains
		case rain < 0.6:
			return biomeForest
		default:
			return biomeDarkForest
		}
	case temp < 1.2:
		switch {
		case rain < 0.3:
			return biomeSavanna
		case rain < 0.6:
			return biomePlains
		default:
			return biomeJungle
		}
	default:
		if rain > 0.6 {
			return biomeJungle
		}
		return biomeDesert
	}
}

// biomeTerrainParams returns (amplitude, baseHeight) for terrain noise scaling.
func biomeTerrainParams(biome byte) (amplitude, baseHeight float64) {
	switch biome {
	case biomeOcean:
		return 8.0, 40.0
	case biomePlains, biomeSavanna:
		return 12.0, float64(seaLevel)
	case biomeForest, biomeDarkForest:
		return 16.0, float64(seaLevel) + 2
	case biomeTaiga, biomeSnowyTaiga, biomeJungle:
		return 18.0, float64(seaLevel) + 4
	case biomeDesert:
		return 10.0, float64(seaLevel) + 2
	case biomeMountains:
		return 40.0, float64(seaLevel) + 10
	case biomeBeach:
		return 3.0, float64(seaLevel)
	case biomeTundra:
		return 10.0, float64(seaLevel)
	default:
		return 14.0, float64(seaLevel)
	}
}
