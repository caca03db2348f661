package sim

import (
	"math/rand/v2"
	"testing"

	"snakevolve/config"
	"snakevolve/neural"
)

func breedTestRNG() *rand.Rand {
	return rand.New(rand.NewPCG(7, 0))
}

// makePool builds a pool of random networks with the given fitness values.
func makePool(cfg *config.Config, fit []float64) []scoredNet {
	rng := rand.New(rand.NewPCG(3, 0))
	pool := make([]scoredNet, len(fit))
	for i, f := range fit {
		pool[i] = scoredNet{fitness: f, net: neural.NewRandom(cfg.Derived.Topology, rng)}
	}
	return pool
}

func TestBreedPreservesSize(t *testing.T) {
	cfg := testConfig(t)
	cfg.Population.TournamentFraction = 0.2
	cfg.Population.RandomFraction = 0.1

	fit := make([]float64, 30)
	for i := range fit {
		fit[i] = float64(i)
	}
	pool := makePool(cfg, fit)

	nets := breedNets(cfg, pool, breedTestRNG())
	if len(nets) != len(pool) {
		t.Fatalf("bred %d networks from a pool of %d", len(nets), len(pool))
	}
}

func TestBreedElitesSurviveUnchanged(t *testing.T) {
	cfg := testConfig(t)
	cfg.Population.EliteCount = 3

	fit := make([]float64, 20)
	for i := range fit {
		fit[i] = float64(i)
	}
	pool := makePool(cfg, fit)
	// Fittest entries sit at the end of the pool
	want := []*neural.Net{pool[19].net, pool[18].net, pool[17].net}

	nets := breedNets(cfg, pool, breedTestRNG())

	for i, w := range want {
		if !nets[i].Equal(w) {
			t.Errorf("elite slot %d does not hold the rank-%d network", i, i)
		}
	}
}

// Equal fitness everywhere: the stable ranking keeps pool order, so the
// elites are exact copies of the first entries and everything else is a
// mutated child.
func TestBreedStableRankingOnTies(t *testing.T) {
	cfg := testConfig(t)
	cfg.Population.EliteCount = 2
	cfg.Population.TournamentFraction = 0
	cfg.Mutation.Rate = 1

	pool := makePool(cfg, make([]float64, 20))
	nets := breedNets(cfg, pool, breedTestRNG())

	if !nets[0].Equal(pool[0].net) || !nets[1].Equal(pool[1].net) {
		t.Error("tied elites were not taken in population order")
	}
	for i := 2; i < len(nets); i++ {
		for j, s := range pool {
			if nets[i].Equal(s.net) {
				t.Errorf("non-elite slot %d is an unmutated copy of pool[%d]", i, j)
			}
		}
	}
}

// With one dominant parent and mutation off, every roulette child must
// be that parent reproduced exactly.
func TestBreedRouletteFollowsFitness(t *testing.T) {
	cfg := testConfig(t)
	cfg.Population.EliteCount = 0
	cfg.Population.TournamentFraction = 0
	cfg.Mutation.Rate = 0

	fit := make([]float64, 10)
	fit[4] = 100
	pool := makePool(cfg, fit)

	nets := breedNets(cfg, pool, breedTestRNG())

	for i, n := range nets {
		if !n.Equal(pool[4].net) {
			t.Errorf("child %d was not bred from the only fit parent", i)
		}
	}
}

func TestBreedZeroTotalFitness(t *testing.T) {
	cfg := testConfig(t)

	pool := makePool(cfg, make([]float64, 15))
	nets := breedNets(cfg, pool, breedTestRNG())

	if len(nets) != 15 {
		t.Fatalf("bred %d networks, want 15", len(nets))
	}
	for i, n := range nets {
		if n == nil {
			t.Fatalf("slot %d is nil", i)
		}
	}
}

func TestBreedRandomFractionTopology(t *testing.T) {
	cfg := testConfig(t)
	cfg.Population.EliteCount = 0
	cfg.Population.TournamentFraction = 0
	cfg.Population.RandomFraction = 1

	fit := []float64{1, 2, 3, 4, 5}
	nets := breedNets(cfg, makePool(cfg, fit), breedTestRNG())

	for i, n := range nets {
		topo := n.Topology()
		if len(topo) != len(cfg.Derived.Topology) {
			t.Fatalf("slot %d topology %v, want %v", i, topo, cfg.Derived.Topology)
		}
		for j := range topo {
			if topo[j] != cfg.Derived.Topology[j] {
				t.Fatalf("slot %d topology %v, want %v", i, topo, cfg.Derived.Topology)
			}
		}
	}
}

func TestTournamentPicksFittest(t *testing.T) {
	cfg := testConfig(t)
	fit := []float64{1, 2, 3}
	pool := makePool(cfg, fit)

	// A tournament far larger than the pool must return the best entry.
	rng := breedTestRNG()
	for i := 0; i < 10; i++ {
		w := tournament(pool, 200, rng)
		if w.fitness != 3 {
			t.Fatalf("tournament of everyone picked fitness %v", w.fitness)
		}
	}
}
