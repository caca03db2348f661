package sim

import (
	"fmt"
	"time"

	"snakevolve/config"
	"snakevolve/game"
	"snakevolve/neural"
	"snakevolve/telemetry"
)

// Snapshot is a read-only view of the simulation for rendering. The
// board fields describe the currently most interesting game: the
// highest-scoring genome still running, or the best finished one when
// the generation is over.
type Snapshot struct {
	Generation  int
	Alive       int
	BoardSize   int
	Body        []game.Point
	Food        game.Point
	Score       int
	BestScore   int // best over the whole run
	BestFitness float64
}

// Driver owns the population and runs the generation loop: step all
// genomes until the generation finishes, evolve, repeat. The caller
// decides when to stop; stopping is only meaningful at generation
// boundaries.
type Driver struct {
	cfg *config.Config
	pop *Population

	bestScore   int
	bestFitness float64
	bestNet     *neural.Net
	genStart    time.Time
}

// NewDriver validates the optional seed network against the configured
// topology and creates generation 0.
func NewDriver(cfg *config.Config, seed int64, seedNet *neural.Net) (*Driver, error) {
	if seedNet != nil {
		if seedNet.NumInputs() != game.VisionSize {
			return nil, fmt.Errorf("loaded network expects %d inputs, vision has %d",
				seedNet.NumInputs(), game.VisionSize)
		}
		if seedNet.NumOutputs() != game.NumActions {
			return nil, fmt.Errorf("loaded network has %d outputs, want %d",
				seedNet.NumOutputs(), game.NumActions)
		}
	}

	return &Driver{
		cfg:      cfg,
		pop:      NewPopulation(cfg, seed, seedNet),
		genStart: time.Now(),
	}, nil
}

// Generation returns the current generation number.
func (d *Driver) Generation() int { return d.pop.Generation() }

// BestNet returns a copy of the best network seen so far, or nil before
// the first generation completes.
func (d *Driver) BestNet() *neural.Net {
	if d.bestNet == nil {
		return nil
	}
	return d.bestNet.Clone()
}

// Step advances every running genome by one step. When that finishes
// the generation, it evolves the next one and returns its summary;
// otherwise it returns nil. The error is non-nil only when persisting
// a record-setting network fails.
func (d *Driver) Step() (*telemetry.GenerationStats, error) {
	if d.pop.StepAll() {
		return nil, nil
	}

	stats, err := d.endGeneration()
	d.pop.Evolve()
	d.genStart = time.Now()
	return stats, err
}

// endGeneration summarizes the finished generation and tracks records.
func (d *Driver) endGeneration() (*telemetry.GenerationStats, error) {
	var (
		maxScore   int
		maxFitness float64
		sumFitness float64
		totalSteps int
		best       *Genome
	)
	for _, g := range d.pop.Genomes {
		f := g.Fitness()
		sumFitness += f
		totalSteps += g.Game.TotalSteps()
		if best == nil || f > maxFitness {
			maxFitness = f
			best = g
		}
		if g.Game.Score() > maxScore {
			maxScore = g.Game.Score()
		}
	}

	if maxFitness > d.bestFitness {
		d.bestFitness = maxFitness
		d.bestNet = best.Net.Clone()
	}

	var saveErr error
	if maxScore > d.bestScore {
		d.bestScore = maxScore
		if d.cfg.Persistence.SaveBest {
			saveErr = d.bestNet.SaveFile(d.cfg.Persistence.SavePath)
		}
	}

	return &telemetry.GenerationStats{
		Generation:  d.pop.Generation(),
		DurationSec: time.Since(d.genStart).Seconds(),
		MaxScore:    maxScore,
		BestScore:   d.bestScore,
		MaxFitness:  maxFitness,
		MeanFitness: sumFitness / float64(len(d.pop.Genomes)),
		TotalSteps:  totalSteps,
	}, saveErr
}

// Snapshot captures the current state for rendering. The simulation
// never waits on the renderer; this is a plain copy.
func (d *Driver) Snapshot() Snapshot {
	var (
		shown *Genome
		alive int
	)
	for _, g := range d.pop.Genomes {
		if !g.Game.Dead() {
			alive++
			if shown == nil || shown.Game.Dead() || g.Game.Score() > shown.Game.Score() {
				shown = g
			}
		} else if shown == nil || (shown.Game.Dead() && g.Game.Score() > shown.Game.Score()) {
			shown = g
		}
	}

	snap := Snapshot{
		Generation:  d.pop.Generation(),
		Alive:       alive,
		BoardSize:   d.cfg.Board.Size,
		BestScore:   d.bestScore,
		BestFitness: d.bestFitness,
	}
	if shown != nil {
		snap.Body = shown.Game.Body()
		snap.Food = shown.Game.Food()
		snap.Score = shown.Game.Score()
	}
	return snap
}

// Close releases the population's worker pool.
func (d *Driver) Close() {
	d.pop.Close()
}
