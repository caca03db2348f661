package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"snakevolve/config"
)

func TestNewOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatal(err)
	}
	if om != nil {
		t.Fatal("empty dir should disable output")
	}

	// A nil manager must be a no-op, not a crash.
	if err := om.WriteGeneration(GenerationStats{}); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" {
		t.Error("nil manager reports a directory")
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestWriteGenerationCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := om.WriteGeneration(GenerationStats{
		Generation: 0, DurationSec: 0.5,
		MaxScore: 3, BestScore: 3,
		MaxFitness: 30000.2, MeanFitness: 120.5, TotalSteps: 900,
	}); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteGeneration(GenerationStats{
		Generation: 1, DurationSec: 0.4,
		MaxScore: 2, BestScore: 3,
		MaxFitness: 20000.1, MeanFitness: 110.0, TotalSteps: 800,
	}); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "generations.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 records:\n%s", len(lines), data)
	}
	if got, want := strings.TrimSpace(lines[0]), "generation,duration_sec,max_score,best_score,max_fitness,mean_fitness,total_steps"; got != want {
		t.Errorf("header = %q, want %q", got, want)
	}
	if !strings.HasPrefix(lines[1], "0,") || !strings.HasPrefix(lines[2], "1,") {
		t.Errorf("records out of order:\n%s", data)
	}
	if !strings.Contains(lines[2], ",800") {
		t.Errorf("second record missing total steps:\n%s", lines[2])
	}
}

func TestWriteConfig(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer om.Close()

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "board:") {
		t.Errorf("config snapshot missing board section:\n%s", data)
	}
}
