package sim

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"snakevolve/config"
	"snakevolve/neural"
)

// scoredNet is one finished genome's contribution to breeding.
type scoredNet struct {
	fitness float64
	net     *neural.Net
}

// breed collects the finished generation's fitness/network pairs and
// produces the next generation's networks.
func (p *Population) breed() []*neural.Net {
	pool := make([]scoredNet, len(p.Genomes))
	for i, g := range p.Genomes {
		pool[i] = scoredNet{fitness: g.Fitness(), net: g.Net}
	}
	return breedNets(p.cfg, pool, p.gaRNG)
}

// breedNets produces exactly len(pool) networks:
//
//  1. elitism: the top elite_count networks are copied unchanged;
//  2. roulette slots: two parents drawn with probability proportional
//     to fitness, per-weight crossover, then mutation;
//  3. tournament slots: the fittest of a random sample, cloned and
//     mutated;
//  4. random slots: fresh random networks to diversify the pool.
//
// Zero total fitness degrades roulette to uniform selection.
func breedNets(cfg *config.Config, pool []scoredNet, rng *rand.Rand) []*neural.Net {
	n := len(pool)
	if n == 0 {
		panic("sim: breed called on empty population")
	}

	popCfg := cfg.Population
	mutCfg := cfg.Mutation

	// Stable ranking so equal fitness values keep population order.
	ranked := append([]scoredNet(nil), pool...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].fitness > ranked[j].fitness
	})

	elite := popCfg.EliteCount
	if elite > n {
		elite = n
	}

	nets := make([]*neural.Net, 0, n)
	for _, s := range ranked[:elite] {
		nets = append(nets, s.net.Clone())
	}

	slots := n - elite
	tournamentN := int(float64(slots) * popCfg.TournamentFraction)
	randomN := int(float64(slots) * popCfg.RandomFraction)
	rouletteN := slots - tournamentN - randomN

	// Roulette wheel over the unranked pool. Weights must have a
	// positive total for the categorical sampler; an all-dead-at-birth
	// generation falls back to uniform odds.
	weights := make([]float64, n)
	total := 0.0
	for i, s := range pool {
		weights[i] = s.fitness
		total += weights[i]
	}
	if total <= 0 {
		for i := range weights {
			weights[i] = 1
		}
	}
	wheel := distuv.NewCategorical(weights, rng)

	for k := 0; k < rouletteN; k++ {
		a := pool[int(wheel.Rand())]
		b := pool[int(wheel.Rand())]
		child := neural.Breed(a.net, b.net, rng)
		child.Mutate(rng, mutCfg.Rate, mutCfg.Magnitude)
		nets = append(nets, child)
	}

	for k := 0; k < tournamentN; k++ {
		winner := tournament(pool, popCfg.TournamentSize, rng)
		child := winner.net.Clone()
		child.Mutate(rng, mutCfg.Rate, mutCfg.Magnitude)
		nets = append(nets, child)
	}

	for k := 0; k < randomN; k++ {
		nets = append(nets, neural.NewRandom(cfg.Derived.Topology, rng))
	}

	return nets
}

// tournament returns the fittest of size pool entries sampled with
// replacement.
func tournament(pool []scoredNet, size int, rng *rand.Rand) scoredNet {
	best := pool[rng.IntN(len(pool))]
	for i := 1; i < size; i++ {
		s := pool[rng.IntN(len(pool))]
		if s.fitness > best.fitness {
			best = s
		}
	}
	return best
}
