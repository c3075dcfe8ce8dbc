package systems

import (
	"fmt"
	"sync"

	"github.com/voidarchitect/corevk/engine/containers"
	"github.com/voidarchitect/corevk/engine/core"
)

// defaultMainThreadQueueCapacity bounds the main-thread backlog when the
// caller passes a zero channelSize to NewJobSystem.
const defaultMainThreadQueueCapacity = 64

// JobPriority determines which of the three queues a job uses. The
// high-priority queue is always exhausted first, then normal, then low
// (spec.md §4.5 "priority Normal, any worker" for disk jobs).
type JobPriority int

const (
	JobPriorityLow JobPriority = iota
	JobPriorityNormal
	JobPriorityHigh
)

// JobType determines which thread a job is allowed to run on.
type JobType int

const (
	// JobTypeGeneral may run on any worker thread.
	JobTypeGeneral JobType = iota
	// JobTypeResourceLoad is a disk-loading job; it runs on any worker
	// and is queued and logged exactly like JobTypeGeneral.
	JobTypeResourceLoad
	// JobTypeMainThread is pinned to the main thread, used for GPU
	// resource creation, matching spec.md §4.5 and §5's "backend GPU
	// resource creation is main-thread-only" rule.
	JobTypeMainThread
)

// Job is a unit of work submitted to the JobSystem.
type Job struct {
	Type     JobType
	Priority JobPriority
	// Ready reports whether Run may execute yet. Only consulted for
	// JobTypeMainThread jobs; nil means always ready. Lets an upload job
	// wait on its paired disk job's SyncPoint without RunMainThreadJobs
	// blocking the frame loop on it (spec.md §4.5/§5 async upload contract).
	Ready    func() bool
	Run      func() error
	// OnComplete/OnFailure run on the worker that executed Run; they must
	// not themselves touch GPU resources unless Type == JobTypeMainThread.
	OnComplete func()
	OnFailure  func(err error)
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")

// JobSystem is a fixed pool of worker goroutines draining a three-level
// priority queue, plus a separate main-thread-only queue drained by
// RunMainThreadJobs from the frame loop (spec.md §5 scheduling model).
type JobSystem struct {
	wg sync.WaitGroup

	mu       sync.Mutex
	notEmpty chan struct{}
	high     []Job
	normal   []Job
	low      []Job
	closed   bool

	// mainThreadMu guards mainThread, a bounded ring buffer (grounded on
	// containers.RingQueue) so a burst of asset loads can't grow the
	// upload backlog without limit; a full queue drops the newly submitted
	// job (with a logged error) rather than blocking the worker that
	// submitted it.
	mainThreadMu sync.Mutex
	mainThread   *containers.RingQueue
}

// NewJobSystem starts numWorkers goroutines draining the shared priority
// queues. channelSize sets the capacity of the main-thread queue (zero
// selects defaultMainThreadQueueCapacity); a negative channelSize is
// rejected, as in the teacher's constructor.
func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}
	capacity := channelSize
	if capacity == 0 {
		capacity = defaultMainThreadQueueCapacity
	}

	js := &JobSystem{
		notEmpty:   make(chan struct{}, 1),
		mainThread: containers.NewRingQueue(capacity),
	}
	js.start(numWorkers)
	return js, nil
}

func (js *JobSystem) start(numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		js.wg.Add(1)
		go js.workerLoop()
	}
}

func (js *JobSystem) workerLoop() {
	defer js.wg.Done()
	for {
		job, ok := js.dequeue()
		if !ok {
			return
		}
		js.runJob(job)
	}
}

func (js *JobSystem) runJob(job Job) {
	if err := job.Run(); err != nil {
		core.LogError("job failed: %s", err.Error())
		if job.OnFailure != nil {
			job.OnFailure(err)
		}
		return
	}
	if job.OnComplete != nil {
		job.OnComplete()
	}
}

func (js *JobSystem) dequeue() (Job, bool) {
	for {
		js.mu.Lock()
		if job, ok := popHighestPriority(&js.high, &js.normal, &js.low); ok {
			js.mu.Unlock()
			return job, true
		}
		closed := js.closed
		js.mu.Unlock()
		if closed {
			return Job{}, false
		}
		<-js.notEmpty
	}
}

func popHighestPriority(high, normal, low *[]Job) (Job, bool) {
	if len(*high) > 0 {
		j := (*high)[0]
		*high = (*high)[1:]
		return j, true
	}
	if len(*normal) > 0 {
		j := (*normal)[0]
		*normal = (*normal)[1:]
		return j, true
	}
	if len(*low) > 0 {
		j := (*low)[0]
		*low = (*low)[1:]
		return j, true
	}
	return Job{}, false
}

// Submit enqueues job onto its priority queue; JobTypeMainThread jobs are
// instead queued for RunMainThreadJobs.
func (js *JobSystem) Submit(job Job) {
	if job.Type == JobTypeMainThread {
		js.mainThreadMu.Lock()
		err := js.mainThread.Enqueue(job)
		js.mainThreadMu.Unlock()
		if err != nil {
			core.LogError("job system: main-thread queue full, dropping upload job")
		}
		return
	}

	js.mu.Lock()
	if js.closed {
		js.mu.Unlock()
		return
	}
	switch job.Priority {
	case JobPriorityHigh:
		js.high = append(js.high, job)
	case JobPriorityNormal:
		js.normal = append(js.normal, job)
	default:
		js.low = append(js.low, job)
	}
	select {
	case js.notEmpty <- struct{}{}:
	default:
	}
	js.mu.Unlock()
}

// RunMainThreadJobs drains and runs every ready job queued with
// JobTypeMainThread. A job whose Ready reports false (its disk stage
// hasn't signaled yet) is left queued for a later call instead of being
// run, so the frame loop never blocks waiting on disk I/O. Must only be
// called from the main thread, once per frame boundary (spec.md §4.5
// upload job contract).
func (js *JobSystem) RunMainThreadJobs() {
	js.mainThreadMu.Lock()
	var pending []Job
	for !js.mainThread.IsEmpty() {
		v, _ := js.mainThread.Dequeue()
		pending = append(pending, v.(Job))
	}
	js.mainThreadMu.Unlock()

	var notReady []Job
	for _, job := range pending {
		if job.Ready != nil && !job.Ready() {
			notReady = append(notReady, job)
			continue
		}
		js.runJob(job)
	}

	if len(notReady) == 0 {
		return
	}
	js.mainThreadMu.Lock()
	for _, job := range notReady {
		if err := js.mainThread.Enqueue(job); err != nil {
			core.LogError("job system: main-thread queue full while re-queuing a not-ready upload job, dropping it")
			break
		}
	}
	js.mainThreadMu.Unlock()
}

// Update is a no-op retained for API parity with the teacher's system
// manager update cycle.
func (js *JobSystem) Update() {}

// Shutdown closes the queue and waits for workers to drain and exit.
func (js *JobSystem) Shutdown() error {
	js.mu.Lock()
	js.closed = true
	js.mu.Unlock()

	close(js.notEmpty)
	js.wg.Wait()
	return nil
}
