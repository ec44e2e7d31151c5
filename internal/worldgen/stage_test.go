package worldgen

import "testing"

func TestStagesOrdered(t *testing.T) {
	stages := Stages()
	if len(stages) != 10 {
		t.Fatalf("len(Stages()) = %d, want 10", len(stages))
	}
	if stages[0] != StageEmpty || stages[len(stages)-1] != StageFull {
		t.Errorf("Stages() = %v, want StageEmpty..StageFull", stages)
	}
	for i := 1; i < len(stages); i++ {
		if !stages[i].IsOrAfter(stages[i-1]) || stages[i-1].IsOrAfter(stages[i]) {
			t.Errorf("stage %s should be strictly after %s", stages[i], stages[i-1])
		}
	}
}

func TestBorderNeeded(t *testing.T) {
	for _, s := range Stages() {
		want := 0
		if s == StageEmpty {
			want = 1
		}
		if got := BorderNeeded(s); got != want {
			t.Errorf("BorderNeeded(%s) = %d, want %d", s, got, want)
		}
		if BorderNeeded(s) > MaxBorderNeeded {
			t.Errorf("BorderNeeded(%s) exceeds MaxBorderNeeded", s)
		}
	}
}

func TestParseStage(t *testing.T) {
	tests := []struct {
		name    string
		want    Stage
		wantErr bool
	}{
		{"empty", StageEmpty, false},
		{"structure_start", StageStructureStart, false},
		{"Structure-Reference", StageStructureReference, false},
		{" light ", StageLight, false},
		{"FULL", StageFull, false},
		{"lighting", StageEmpty, true},
		{"", StageEmpty, true},
	}
	for _, tt := range tests {
		got, err := ParseStage(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStage(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStage(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestStageStringRoundTrip(t *testing.T) {
	for _, s := range Stages() {
		got, err := ParseStage(s.String())
		if err != nil || got != s {
			t.Errorf("ParseStage(%q) = %s, %v; want %s", s.String(), got, err, s)
		}
	}
	if got := Stage(42).String(); got != "stage(42)" {
		t.Errorf("Stage(42).String() = %q", got)
	}
}
