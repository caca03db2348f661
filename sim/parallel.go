package sim

import "sync"

// parallelThreshold is the minimum genome count to use parallel
// stepping. Below this, single-threaded is faster due to goroutine
// overhead.
const parallelThreshold = 64

// workChunk is a half-open range of genome indices for one worker.
type workChunk struct {
	start, end int
}

// workerPool runs genome updates across persistent workers. Each chunk
// touches a disjoint index range, so workers need no locks; run joins
// on all chunks before returning, which is the only synchronization
// the step loop needs.
type workerPool struct {
	workers  int
	workChan chan workChunk
	doneChan chan int // alive count per completed chunk
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool

	genomes []*Genome // current dispatch target, set before each run
}

func newWorkerPool(workers int) *workerPool {
	if workers < 1 {
		workers = 1
	}
	return &workerPool{workers: workers}
}

func (wp *workerPool) start() {
	if wp.running {
		return
	}
	wp.workChan = make(chan workChunk, wp.workers)
	wp.doneChan = make(chan int, wp.workers)
	wp.stopChan = make(chan struct{})
	wp.running = true

	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

func (wp *workerPool) stop() {
	if !wp.running {
		return
	}
	close(wp.stopChan)
	wp.wg.Wait()
	close(wp.workChan)
	close(wp.doneChan)
	wp.running = false
}

func (wp *workerPool) worker() {
	defer wp.wg.Done()
	for {
		select {
		case <-wp.stopChan:
			return
		case chunk, ok := <-wp.workChan:
			if !ok {
				return
			}
			alive := 0
			for i := chunk.start; i < chunk.end; i++ {
				if wp.genomes[i].Update() {
					alive++
				}
			}
			wp.doneChan <- alive
		}
	}
}

// run steps every genome once in parallel and returns the number still
// running.
func (wp *workerPool) run(genomes []*Genome) int {
	wp.start()
	wp.genomes = genomes

	n := len(genomes)
	chunkSize := (n + wp.workers - 1) / wp.workers

	dispatched := 0
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		wp.workChan <- workChunk{start: start, end: end}
		dispatched++
	}

	alive := 0
	for i := 0; i < dispatched; i++ {
		alive += <-wp.doneChan
	}
	return alive
}
