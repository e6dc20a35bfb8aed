//go:build !noextracolors

package vga

import "testing"

func TestPropsBounds(t *testing.T) {
	var p Props

	p.Set(-1, PropColor1)
	p.Set(VisibleLines, PropColor1)
	p.Set(VisibleLines+10, PropColor1)
	for line := 0; line < TotalLines; line++ {
		if p.At(line) != 0 {
			t.Fatalf("Line %d: expected 0 after out of range Set, got %d", line, p.At(line))
		}
	}

	p.Set(0, PropColor1)
	p.Set(VisibleLines-1, PropColor1|PropColor2)
	if got := p.Get(0); got != PropColor1 {
		t.Errorf("Expected %d, got %d", PropColor1, got)
	}
	if got := p.Get(VisibleLines - 1); got != PropColor1|PropColor2 {
		t.Errorf("Expected %d, got %d", PropColor1|PropColor2, got)
	}

	for _, y := range []int{-1, VisibleLines, TotalLines} {
		if p.Get(y) != 0 {
			t.Errorf("Get(%d): expected 0", y)
		}
	}
	if p.At(-5) != 0 || p.At(TotalLines) != 0 {
		t.Error("Expected At to return 0 outside the cycle")
	}
}

func TestPropsSetRangeClamps(t *testing.T) {
	var p Props

	p.SetRange(-10, 5, PropColor2)
	for y := 0; y < 5; y++ {
		if p.Get(y) != PropColor2 {
			t.Errorf("Line %d: expected %d, got %d", y, PropColor2, p.Get(y))
		}
	}
	if p.Get(5) != 0 {
		t.Error("Expected end to be exclusive")
	}

	p.SetRange(470, 600, PropColor1)
	for y := 470; y < VisibleLines; y++ {
		if p.Get(y) != PropColor1 {
			t.Errorf("Line %d: expected %d, got %d", y, PropColor1, p.Get(y))
		}
	}
	for line := VisibleLines; line < TotalLines; line++ {
		if p.At(line) != 0 {
			t.Fatalf("Line %d: expected blanking line untouched", line)
		}
	}

	// empty and inverted ranges write nothing
	p.Reset()
	p.SetRange(10, 10, PropColor1)
	p.SetRange(20, 15, PropColor1)
	for _, v := range p.Visible() {
		if v != 0 {
			t.Fatal("Expected empty range to write nothing")
		}
	}
}

func TestGeneratorColors(t *testing.T) {
	g, rec, timer := newTestGenerator(t, true)
	if err := g.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	g.Props().Set(1, PropColor1)

	timer.Fire(2)

	var colors []Event
	for _, e := range rec.Events {
		if e.Kind == EventColors {
			colors = append(colors, e)
		}
	}
	if len(colors) != 2 {
		t.Fatalf("Expected 2 colour events, got %d", len(colors))
	}
	if colors[0].Color1 || colors[0].Color2 {
		t.Error("Expected line 0 colours off")
	}
	if !colors[1].Color1 || colors[1].Color2 {
		t.Errorf("Expected line 1 colour1 only, got %+v", colors[1])
	}
}

func TestGeneratorColorsDisabled(t *testing.T) {
	g, rec, timer := newTestGenerator(t, false)
	if err := g.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	g.Props().Set(0, PropColor1)

	timer.Fire(1)
	for _, e := range rec.Events {
		if e.Kind == EventColors {
			t.Fatal("Unexpected colour event with extra colours disabled")
		}
	}
}
