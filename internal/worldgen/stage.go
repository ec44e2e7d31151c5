package worldgen

import (
	"fmt"
	"strings"
)

// Stage is a step of chunk generation. Stages are totally ordered.
type Stage int32

const (
	StageEmpty Stage = iota
	StageStructureStart
	StageStructureReference
	StageBiomes
	StageNoise
	StageSurface
	StageCarvers
	StageFeatures
	StageLight
	StageFull
)

var stageNames = [...]string{
	StageEmpty:              "empty",
	StageStructureStart:     "structure_start",
	StageStructureReference: "structure_reference",
	StageBiomes:             "biomes",
	StageNoise:              "noise",
	StageSurface:            "surface",
	StageCarvers:            "carvers",
	StageFeatures:           "features",
	StageLight:              "light",
	StageFull:               "full",
}

// borderNeeded is how many chunks of neighbours a stage reads around the
// chunks it generates. Only loading empty chunks needs the outer ring.
var borderNeeded = [...]int{
	StageEmpty: 1,
}

// MaxBorderNeeded is the widest border any stage needs.
const MaxBorderNeeded = 1

// Stages returns every stage in generation order.
func Stages() []Stage {
	out := make([]Stage, 0, len(stageNames))
	for s := StageEmpty; s <= StageFull; s++ {
		out = append(out, s)
	}
	return out
}

func (s Stage) String() string {
	if s < StageEmpty || s > StageFull {
		return fmt.Sprintf("stage(%d)", int32(s))
	}
	return stageNames[s]
}

// IsOrAfter reports whether s is at or later than other.
func (s Stage) IsOrAfter(other Stage) bool { return s >= other }

// BorderNeeded returns the neighbour border stage s reads.
func BorderNeeded(s Stage) int {
	if s < 0 || int(s) >= len(borderNeeded) {
		return 0
	}
	return borderNeeded[s]
}

// ParseStage converts a stage name (as printed by String) to a Stage.
func ParseStage(name string) (Stage, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "-", "_")
	for i, sn := range stageNames {
		if sn == n {
			return Stage(i), nil
		}
	}
	return StageEmpty, fmt.Errorf("unknown generation stage %q", name)
}
