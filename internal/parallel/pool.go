package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Task is a unit of work. worker is the index of the goroutine running it,
// in [0, Workers()).
type Task func(worker int)

// WorkerPool runs tasks on a fixed set of goroutines.
//
// Each worker has a stealable queue and a pinned queue. Tasks from
// ExecuteAll may run on any worker; an idle worker steals from
// the others. Broadcast tasks sit in pinned queues and run exactly once on
// every worker, ahead of ordinary work.
//
// Tasks must not call back into the pool they run on.
type WorkerPool struct {
	workers int
	queues  []chan Task
	pinned  []chan Task
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewWorkerPool starts a pool with the given number of workers. Zero or a
// negative count means GOMAXPROCS.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := max(workers*4, 8)

	p := &WorkerPool{
		workers: workers,
		queues:  make([]chan Task, workers),
		pinned:  make([]chan Task, workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan Task, queueSize)
		p.pinned[i] = make(chan Task, queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	own, pinned := p.queues[id], p.pinned[id]
	for {
		// Pinned work first so broadcasts are never starved.
		select {
		case t := <-pinned:
			t(id)
			continue
		default:
		}

		select {
		case <-p.done:
			p.drain(id)
			return
		case t := <-pinned:
			t(id)
		case t := <-own:
			t(id)
		default:
			if t := p.steal(id); t != nil {
				t(id)
				continue
			}
			select {
			case <-p.done:
				p.drain(id)
				return
			case t := <-pinned:
				t(id)
			case t := <-own:
				t(id)
			}
		}
	}
}

// drain runs whatever is left in the worker's queues.
func (p *WorkerPool) drain(id int) {
	for {
		select {
		case t := <-p.pinned[id]:
			t(id)
		case t := <-p.queues[id]:
			t(id)
		default:
			return
		}
	}
}

// steal takes one task from another worker's stealable queue.
func (p *WorkerPool) steal(id int) Task {
	for i := 1; i < p.workers; i++ {
		select {
		case t := <-p.queues[(id+i)%p.workers]:
			return t
		default:
		}
	}
	return nil
}

// ExecuteAll distributes tasks round-robin and waits for all of them.
// It is a no-op on a closed pool.
func (p *WorkerPool) ExecuteAll(tasks []Task) {
	if len(tasks) == 0 || !p.running.Load() {
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, fn := range tasks {
		wrapped := func(worker int) {
			defer wg.Done()
			fn(worker)
		}
		select {
		case p.queues[i%p.workers] <- wrapped:
		case <-p.done:
			wg.Done()
		}
	}
	wg.Wait()
}

// Broadcast runs fn once on every worker and waits for all of them.
// It is a no-op on a closed pool.
func (p *WorkerPool) Broadcast(fn Task) {
	if fn == nil || !p.running.Load() {
		return
	}

	var wg sync.WaitGroup
	wg.Add(p.workers)
	for i := range p.workers {
		wrapped := func(worker int) {
			defer wg.Done()
			fn(worker)
		}
		select {
		case p.pinned[i] <- wrapped:
		case <-p.done:
			wg.Done()
		}
	}
	wg.Wait()
}

// Close stops accepting work, runs what is queued and stops the workers.
// Close is safe to call more than once.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of worker goroutines.
func (p *WorkerPool) Workers() int { return p.workers }

// IsRunning reports whether the pool accepts work.
func (p *WorkerPool) IsRunning() bool { return p.running.Load() }

// QueuedWork approximates the number of queued tasks.
func (p *WorkerPool) QueuedWork() int {
	total := 0
	for i := range p.workers {
		total += len(p.queues[i]) + len(p.pinned[i])
	}
	return total
}
