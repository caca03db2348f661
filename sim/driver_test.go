package sim

import (
	"math/rand/v2"
	"path/filepath"
	"testing"

	"snakevolve/game"
	"snakevolve/neural"
	"snakevolve/telemetry"
)

// runGenerations steps the driver until it has produced n generation
// summaries.
func runGenerations(t *testing.T, d *Driver, n int) []*telemetry.GenerationStats {
	t.Helper()
	var out []*telemetry.GenerationStats
	limit := n * 1000000
	for i := 0; i < limit; i++ {
		stats, err := d.Step()
		if err != nil {
			t.Fatal(err)
		}
		if stats != nil {
			out = append(out, stats)
			if len(out) == n {
				return out
			}
		}
	}
	t.Fatalf("driver produced only %d of %d generations", len(out), n)
	return nil
}

func TestDriverGenerationLoop(t *testing.T) {
	cfg := testConfig(t)
	d, err := NewDriver(cfg, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	stats := runGenerations(t, d, 2)

	if stats[0].Generation != 0 || stats[1].Generation != 1 {
		t.Errorf("generations = %d, %d, want 0, 1", stats[0].Generation, stats[1].Generation)
	}
	if d.Generation() != 2 {
		t.Errorf("driver generation = %d, want 2", d.Generation())
	}
	for _, s := range stats {
		// Every genome takes at least one step, so fitness is positive.
		if s.MaxFitness <= 0 {
			t.Errorf("gen %d: max fitness = %v, want > 0", s.Generation, s.MaxFitness)
		}
		if s.MeanFitness <= 0 || s.MeanFitness > s.MaxFitness {
			t.Errorf("gen %d: mean fitness %v outside (0, %v]", s.Generation, s.MeanFitness, s.MaxFitness)
		}
		if s.TotalSteps <= 0 {
			t.Errorf("gen %d: total steps = %d", s.Generation, s.TotalSteps)
		}
		if s.BestScore < s.MaxScore {
			t.Errorf("gen %d: best score %d below generation max %d", s.Generation, s.BestScore, s.MaxScore)
		}
	}

	if d.BestNet() == nil {
		t.Error("no best network after two generations")
	}
}

func TestDriverBestScoreMonotonic(t *testing.T) {
	cfg := testConfig(t)
	d, err := NewDriver(cfg, 5, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	stats := runGenerations(t, d, 4)
	for i := 1; i < len(stats); i++ {
		if stats[i].BestScore < stats[i-1].BestScore {
			t.Fatalf("best score dropped from %d to %d", stats[i-1].BestScore, stats[i].BestScore)
		}
	}
}

func TestDriverSavesRecordNetwork(t *testing.T) {
	cfg := testConfig(t)
	cfg.Persistence.SaveBest = true
	cfg.Persistence.SavePath = filepath.Join(t.TempDir(), "nets", "best.json")

	d, err := NewDriver(cfg, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	// The record only moves when some genome actually eats, so run
	// generations until a save shows up.
	var saved *neural.Net
	for gen := 0; gen < 30; gen++ {
		runGenerations(t, d, 1)
		if n, err := neural.LoadFile(cfg.Persistence.SavePath); err == nil {
			saved = n
			break
		}
	}
	if saved == nil {
		t.Skip("no genome scored within 30 generations")
	}

	if saved.NumInputs() != game.VisionSize || saved.NumOutputs() != game.NumActions {
		t.Errorf("saved network shape %dx%d, want %dx%d",
			saved.NumInputs(), saved.NumOutputs(), game.VisionSize, game.NumActions)
	}
}

func TestNewDriverRejectsWrongShape(t *testing.T) {
	cfg := testConfig(t)
	rng := rand.New(rand.NewPCG(1, 0))

	bad := neural.NewRandom([]int{10, 5, game.NumActions}, rng)
	if _, err := NewDriver(cfg, 1, bad); err == nil {
		t.Error("driver accepted a network with the wrong input size")
	}

	bad = neural.NewRandom([]int{game.VisionSize, 5, 7}, rng)
	if _, err := NewDriver(cfg, 1, bad); err == nil {
		t.Error("driver accepted a network with the wrong output size")
	}
}

func TestDriverSnapshot(t *testing.T) {
	cfg := testConfig(t)
	d, err := NewDriver(cfg, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	snap := d.Snapshot()
	if snap.Generation != 0 {
		t.Errorf("generation = %d, want 0", snap.Generation)
	}
	if snap.Alive != cfg.Population.Size {
		t.Errorf("alive = %d, want %d", snap.Alive, cfg.Population.Size)
	}
	if snap.BoardSize != cfg.Board.Size {
		t.Errorf("board size = %d, want %d", snap.BoardSize, cfg.Board.Size)
	}
	if len(snap.Body) != cfg.Game.InitialLength {
		t.Errorf("shown body length = %d, want %d", len(snap.Body), cfg.Game.InitialLength)
	}

	// After the generation finishes the snapshot shows a finished game.
	runGenerations(t, d, 1)
	snap = d.Snapshot()
	if snap.Alive != cfg.Population.Size {
		t.Errorf("alive after respawn = %d, want %d", snap.Alive, cfg.Population.Size)
	}
}
