// Package sim drives populations of snake-playing networks through the
// evolutionary loop: parallel per-step updates, fitness ranking and
// generational breeding.
package sim

import (
	"snakevolve/config"
	"snakevolve/game"
	"snakevolve/neural"
)

// Genome pairs one game instance with one network and exposes the
// fitness of the pair. A genome owns its game exclusively; nothing is
// shared between genomes, which is what makes parallel stepping safe.
type Genome struct {
	Game *game.Game
	Net  *neural.Net

	cfg *config.Config
}

// Update advances the genome by one step: vision, decision, move.
// Returns whether the game is still running afterwards. Dead genomes
// are frozen and report false immediately.
func (gn *Genome) Update() bool {
	if gn.Game.Dead() {
		return false
	}

	act, err := gn.Net.Decide(gn.Game.Vision())
	if err != nil {
		// Topologies are validated at startup; a mismatch here is a bug,
		// not a recoverable condition.
		panic(err)
	}
	gn.Game.Step(game.Action(act))

	return !gn.Game.Dead()
}

// Fitness scores the genome. The weights come from config; defaults
// keep the score term strictly dominant over the step term, so a
// longer snake always outranks a shorter one.
func (gn *Genome) Fitness() float64 {
	return float64(gn.Game.Score())*gn.cfg.Fitness.ScoreWeight +
		float64(gn.Game.TotalSteps())*gn.cfg.Fitness.StepWeight
}
