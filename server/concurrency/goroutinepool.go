/******************************************************************************
 *
 *  Description :
 *    A basic pool of goroutines with a bounded backlog of tasks.
 *
 *****************************************************************************/
package concurrency

import (
	"sync"
)

// Task represents a work task to be run on the specified thread pool.
type Task func()

type GoRoutinePool struct {
	// Work queue.
	work chan Task
	// Counter to control the number of already allocated/running goroutines.
	sem chan struct{}
	// Exit knob.
	stop chan struct{}

	// Guards stopped and wg.Add.
	mu      sync.Mutex
	stopped bool
	// Running workers.
	wg sync.WaitGroup
}

// NewGoRoutinePool allocates a new thread pool with up to `numWorkers` goroutines
// and a queue of `backlog` tasks waiting for a free goroutine.
func NewGoRoutinePool(numWorkers, backlog int) *GoRoutinePool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if backlog < 0 {
		backlog = 0
	}
	return &GoRoutinePool{
		work: make(chan Task, backlog),
		sem:  make(chan struct{}, numWorkers),
		stop: make(chan struct{}),
	}
}

// Schedule enqueus a closure to run on the GoRoutinePool's goroutines.
// Blocks while all goroutines are busy and the backlog is full.
func (p *GoRoutinePool) Schedule(task Task) {
	if p.spawn(task) {
		return
	}
	select {
	case p.work <- task:
	case <-p.stop:
	}
}

// TrySchedule is like Schedule but returns false instead of blocking.
func (p *GoRoutinePool) TrySchedule(task Task) bool {
	if p.spawn(task) {
		return true
	}
	select {
	case <-p.stop:
		return false
	default:
	}
	select {
	case p.work <- task:
		return true
	default:
		return false
	}
}

// Pending returns the number of tasks waiting for a free goroutine.
func (p *GoRoutinePool) Pending() int {
	return len(p.work)
}

// Stop signals all goroutines to exit after the current task and waits for them.
// Returns the number of queued tasks which were not run.
func (p *GoRoutinePool) Stop() int {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.stop)
	}
	p.mu.Unlock()
	p.wg.Wait()

	dropped := 0
	for {
		select {
		case <-p.work:
			dropped++
		default:
			return dropped
		}
	}
}

// Start a new goroutine for the task if the limit allows.
func (p *GoRoutinePool) spawn(task Task) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return false
	}
	select {
	case p.sem <- struct{}{}:
		p.wg.Add(1)
		go p.worker(task)
		return true
	default:
		return false
	}
}

// Thread pool worker goroutine.
func (p *GoRoutinePool) worker(task Task) {
	defer func() {
		<-p.sem
		p.wg.Done()
	}()
	for {
		task()
		select {
		case <-p.stop:
			return
		default:
		}
		select {
		case task = <-p.work:
		case <-p.stop:
			return
		}
	}
}
