package types

import "testing"

func TestVec2_MinMax(t *testing.T) {
	a := Vec2{800, 600}
	b := Vec2{900, 500}

	if got := a.Min(b); got != (Vec2{800, 500}) {
		t.Errorf("Min = %v, want 800x500", got)
	}
	if got := a.Max(b); got != (Vec2{900, 600}) {
		t.Errorf("Max = %v, want 900x600", got)
	}
}

func TestVec2_Covers(t *testing.T) {
	tests := []struct {
		size, min Vec2
		want      bool
	}{
		{Vec2{800, 600}, Vec2{800, 600}, true},
		{Vec2{801, 600}, Vec2{800, 600}, true},
		{Vec2{799, 600}, Vec2{800, 600}, false},
		{Vec2{800, 599}, Vec2{800, 600}, false},
	}

	for _, tt := range tests {
		if got := tt.size.Covers(tt.min); got != tt.want {
			t.Errorf("%v.Covers(%v) = %v, want %v", tt.size, tt.min, got, tt.want)
		}
	}
}

func TestParseVec2(t *testing.T) {
	tests := []struct {
		input   string
		want    Vec2
		wantErr bool
	}{
		{"800x600", Vec2{800, 600}, false},
		{" 320 , 240 ", Vec2{320, 240}, false},
		{"800", Vec2{}, true},
		{"axb", Vec2{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseVec2(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseVec2(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDisplayState(t *testing.T) {
	for _, s := range DisplayStates {
		got, ok := ParseDisplayState(string(s))
		if !ok || got != s {
			t.Errorf("ParseDisplayState(%q) = %q, %v", s, got, ok)
		}
	}

	if _, ok := ParseDisplayState("docked"); ok {
		t.Error("docked should not parse")
	}
}

func TestDisplayState_Transient(t *testing.T) {
	if !StateMinimized.Transient() {
		t.Error("minimized should be transient")
	}
	if StateMaximized.Transient() || StateNormal.Transient() || StateFullscreen.Transient() {
		t.Error("only minimized is transient")
	}
}

func TestParseModeKind(t *testing.T) {
	if k, ok := ParseModeKind("Widget"); !ok || k != ModeWidget {
		t.Errorf("ParseModeKind(Widget) = %q, %v", k, ok)
	}
	if _, ok := ParseModeKind("splash"); ok {
		t.Error("splash should not parse")
	}
}

func TestStateEdges(t *testing.T) {
	if len(StateEdges) != 6 {
		t.Fatalf("expected 6 state edges, got %d", len(StateEdges))
	}
	for _, e := range StateEdges {
		if e == EdgeResize {
			t.Error("resize is not a state edge")
		}
	}
	if e, ok := ParseEdge("enter-full-screen"); !ok || e != EdgeEnterFullScreen {
		t.Errorf("ParseEdge = %q, %v", e, ok)
	}
}
