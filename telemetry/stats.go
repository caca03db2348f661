// Package telemetry collects and exports per-generation statistics.
package telemetry

// GenerationStats summarizes one completed generation.
type GenerationStats struct {
	Generation  int     `csv:"generation"`
	DurationSec float64 `csv:"duration_sec"`
	MaxScore    int     `csv:"max_score"`
	BestScore   int     `csv:"best_score"` // best over the whole run so far
	MaxFitness  float64 `csv:"max_fitness"`
	MeanFitness float64 `csv:"mean_fitness"`
	TotalSteps  int     `csv:"total_steps"`
}
