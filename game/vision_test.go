package game

import (
	"math"
	"testing"
)

func TestVisionSize(t *testing.T) {
	g := newTestGame(t, 10, 3, 100)
	if got := len(g.Vision()); got != VisionSize {
		t.Fatalf("vision length = %d, want %d", got, VisionSize)
	}
}

// Hand-computed vision for the start state on a 10x10 board: body
// [(5,5) (4,5) (3,5)] heading east, food moved to (6,5).
func TestVisionStartState(t *testing.T) {
	g := newTestGame(t, 10, 3, 100)
	g.food = Point{6, 5}

	want := []float64{
		1.0 / 6, 0, // north: wall 6 away
		1.0 / 5, 1, // east: wall 5 away, food on the ray
		1.0 / 5, 0, // south
		1, 0, // west: own body 1 away
		1.0 / 5, 0, // northeast
		1.0 / 5, 0, // southeast
		1.0 / 5, 0, // southwest
		1.0 / 6, 0, // northwest
		0, 1, 0, 0, // heading east
		0, 1, 0, 0, // tail moving east
	}

	got := g.Vision()
	if len(got) != len(want) {
		t.Fatalf("vision length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("vision[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestVisionValuesInRange(t *testing.T) {
	g := newTestGame(t, 10, 3, 100)
	rng := testRNG(5)

	for step := 0; step < 200 && !g.Dead(); step++ {
		for i, v := range g.Vision() {
			if v < 0 || v > 1 {
				t.Fatalf("step %d: vision[%d] = %v outside [0, 1]", step, i, v)
			}
		}
		g.Step(Action(rng.IntN(NumActions)))
	}
}

func TestVisionDoesNotMutateState(t *testing.T) {
	g := newTestGame(t, 10, 3, 100)

	before := g.Body()
	first := g.Vision()
	second := g.Vision()

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("repeated Vision calls disagree at %d: %v vs %v", i, first[i], second[i])
		}
	}
	after := g.Body()
	for i := range before {
		if before[i] != after[i] {
			t.Fatal("Vision changed the body")
		}
	}
}

func TestTailDirectionAfterTurn(t *testing.T) {
	g := newTestGame(t, 10, 3, 100)
	g.food = Point{0, 9}

	// Turning left moves the head north; the tail still trails east.
	g.Step(TurnLeft)
	if g.Dead() {
		t.Fatalf("died: %v", g.DeathCause())
	}

	v := g.Vision()
	heading := v[16:20]
	tail := v[20:24]
	if heading[0] != 1 {
		t.Errorf("heading one-hot = %v, want north", heading)
	}
	if tail[1] != 1 {
		t.Errorf("tail one-hot = %v, want east", tail)
	}
}
