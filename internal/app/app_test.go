package app

import (
	"testing"

	"dodge-and-deal/server/internal/sim"
)

func TestMapMessageReflectsWorldLayout(t *testing.T) {
	layout := []string{
		"######",
		"#....#",
		"#.S..D",
		"######",
	}
	w := sim.NewWorld(sim.Config{
		Layout: layout,
		Spawn:  sim.SpawnConfig{Enabled: false, MinInterval: 1, MaxInterval: 2},
	})

	msg := mapMessage(w)
	if msg.Cols != 6 || msg.Rows != 4 {
		t.Fatalf("map dimensions %dx%d, want 6x4", msg.Cols, msg.Rows)
	}
	if len(msg.Layout) != len(layout) || msg.Layout[2] != "#.S..D" {
		t.Fatalf("map layout does not match the world's: %v", msg.Layout)
	}
}
