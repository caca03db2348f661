package sim

import (
	"math/rand/v2"

	"snakevolve/config"
	"snakevolve/game"
	"snakevolve/neural"
)

// Stream salts for deriving independent PCG streams from the run seed.
// Game streams additionally mix the generation and genome index so that
// every game instance replays identically for a fixed seed.
const (
	streamInit = 0x5eed0001 // initial network weights
	streamGA   = 0x5eed0002 // selection, crossover, mutation
	streamGame = 0x5eed0003 // food placement, one stream per game
)

// Population is the fixed-size ordered set of genomes for one run.
// Its size never changes across generations.
type Population struct {
	cfg        *config.Config
	seed       uint64
	generation int
	gaRNG      *rand.Rand
	pool       *workerPool

	Genomes []*Genome
}

// NewPopulation creates generation 0. When seedNet is non-nil every
// genome starts from a mutated copy of it instead of random weights.
func NewPopulation(cfg *config.Config, seed int64, seedNet *neural.Net) *Population {
	p := &Population{
		cfg:   cfg,
		seed:  uint64(seed),
		gaRNG: rand.New(rand.NewPCG(uint64(seed), streamGA)),
		pool:  newWorkerPool(cfg.Derived.Workers),
	}

	initRNG := rand.New(rand.NewPCG(uint64(seed), streamInit))
	nets := make([]*neural.Net, cfg.Population.Size)
	for i := range nets {
		if seedNet != nil {
			n := seedNet.Clone()
			n.Mutate(initRNG, cfg.Mutation.Rate, cfg.Mutation.Magnitude)
			nets[i] = n
		} else {
			nets[i] = neural.NewRandom(cfg.Derived.Topology, initRNG)
		}
	}

	p.spawn(nets)
	return p
}

// Generation returns the current generation number, starting at 0.
func (p *Population) Generation() int { return p.generation }

// spawn replaces all genomes with fresh games around the given nets.
func (p *Population) spawn(nets []*neural.Net) {
	genomes := make([]*Genome, len(nets))
	for i, net := range nets {
		rng := rand.New(rand.NewPCG(p.seed, gameStreamID(p.generation, i)))
		genomes[i] = &Genome{
			Game: game.New(p.cfg.Board.Size, p.cfg.Game.InitialLength, p.cfg.Derived.StarvationThreshold, rng),
			Net:  net,
			cfg:  p.cfg,
		}
	}
	p.Genomes = genomes
}

func gameStreamID(generation, index int) uint64 {
	return streamGame ^ uint64(generation)<<32 ^ uint64(index)
}

// StepAll advances every running genome by one step and reports whether
// any genome is still running. Genomes touch no shared state, so the
// update fans out over the worker pool; results are identical to the
// serial path.
func (p *Population) StepAll() bool {
	n := len(p.Genomes)
	if p.pool.workers <= 1 || n < parallelThreshold {
		alive := 0
		for _, g := range p.Genomes {
			if g.Update() {
				alive++
			}
		}
		return alive > 0
	}
	return p.pool.run(p.Genomes) > 0
}

// Evolve breeds the next generation from the finished one and resets
// all games. Population size is preserved exactly.
func (p *Population) Evolve() {
	nets := p.breed()
	p.generation++
	p.spawn(nets)
}

// Close stops the worker pool.
func (p *Population) Close() {
	p.pool.stop()
}
