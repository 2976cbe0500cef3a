// Package worker runs pipeline jobs on a fixed pool of workers behind a
// buffered queue.
package worker

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Job is a unit of pipeline work. Execute blocks until the stage completes
// or fails; the classification stage in particular can hold a worker for
// minutes while the reasoning service responds.
type Job interface {
	Execute(ctx context.Context) error
	ID() string
	Type() string
}

// Worker pulls jobs from its own channel after registering it with the pool.
type Worker struct {
	id         int
	workerPool chan chan Job
	jobChannel chan Job
	quit       chan bool
	wg         *sync.WaitGroup
	log        *logrus.Logger
}

// NewWorker creates a Worker registered against the given pool.
func NewWorker(id int, workerPool chan chan Job, wg *sync.WaitGroup, log *logrus.Logger) Worker {
	return Worker{
		id:         id,
		workerPool: workerPool,
		jobChannel: make(chan Job),
		quit:       make(chan bool),
		wg:         wg,
		log:        log,
	}
}

// Start makes the worker listen for jobs on its channel.
func (w Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			w.workerPool <- w.jobChannel

			select {
			case job := <-w.jobChannel:
				fields := logrus.Fields{"worker": w.id, "job_id": job.ID(), "job_type": job.Type()}
				w.log.WithFields(fields).Info("Job started")
				if err := job.Execute(context.Background()); err != nil {
					w.log.WithFields(fields).WithError(err).Error("Job failed")
				} else {
					w.log.WithFields(fields).Info("Job finished")
				}
			case <-w.quit:
				return
			}
		}
	}()
}

// Stop signals the worker to exit after its current job.
func (w Worker) Stop() {
	go func() {
		w.quit <- true
	}()
}

// Dispatcher fans jobs out from a buffered queue to available workers.
type Dispatcher struct {
	maxWorkers int
	workerPool chan chan Job
	jobQueue   chan Job
	workers    []Worker
	wg         sync.WaitGroup
	quit       chan bool
	log        *logrus.Logger
}

// NewDispatcher creates a Dispatcher with the given pool size and queue
// capacity.
func NewDispatcher(maxWorkers, jobQueueSize int, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		maxWorkers: maxWorkers,
		workerPool: make(chan chan Job, maxWorkers),
		jobQueue:   make(chan Job, jobQueueSize),
		workers:    make([]Worker, 0, maxWorkers),
		quit:       make(chan bool),
		log:        log,
	}
}

// Run starts the workers and the dispatch loop.
func (d *Dispatcher) Run() {
	for i := 1; i <= d.maxWorkers; i++ {
		worker := NewWorker(i, d.workerPool, &d.wg, d.log)
		d.workers = append(d.workers, worker)
		worker.Start()
	}
	go d.dispatch()
	d.log.WithField("workers", d.maxWorkers).Info("Dispatcher running")
}

func (d *Dispatcher) dispatch() {
	for {
		select {
		case job := <-d.jobQueue:
			go func(job Job) {
				jobChannel := <-d.workerPool
				jobChannel <- job
			}(job)
		case <-d.quit:
			return
		}
	}
}

// Submit queues a job without blocking. It reports whether the job was
// accepted; a full queue rejects the job and the caller decides what to do.
func (d *Dispatcher) Submit(job Job) bool {
	select {
	case d.jobQueue <- job:
		d.log.WithField("job_id", job.ID()).WithField("job_type", job.Type()).Info("Job queued")
		return true
	default:
		d.log.WithField("job_id", job.ID()).Warn("Job queue full, rejecting job")
		return false
	}
}

// Stop shuts down the dispatch loop and waits for in-flight jobs.
func (d *Dispatcher) Stop() {
	d.quit <- true
	for _, worker := range d.workers {
		worker.Stop()
	}
	d.wg.Wait()
	d.log.Info("Dispatcher stopped")
}
