package systems

import (
	"fmt"
	"sync"

	"github.com/voidarchitect/corevk/engine/core"
)

// completion is one finished disk-stage result, waiting to be picked up by
// its owning resource system's upload stage.
type completion struct {
	err error
	// payload is the decoded, backend-agnostic data a disk job produced
	// (e.g. decoded pixels, parsed mesh vertices); the upload job turns
	// it into a GPU resource on the main thread.
	payload interface{}
}

// CompletionStore is a thread-safe, name-keyed mailbox between a disk-stage
// job (any worker) and the upload-stage job that must run on the main
// thread (spec.md §4.5). Put is called at most once per in-flight load;
// Take is destructive, consuming the entry.
type CompletionStore struct {
	mu      sync.Mutex
	pending map[string]completion
}

// NewCompletionStore builds an empty store.
func NewCompletionStore() *CompletionStore {
	return &CompletionStore{pending: make(map[string]completion)}
}

// Put records the disk stage's outcome for name. Safe to call from any
// worker goroutine.
func (c *CompletionStore) Put(name string, payload interface{}, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[name] = completion{err: err, payload: payload}
}

// Take removes and returns the completion for name, if any. The second
// return is false when no disk job has finished for that name yet.
func (c *CompletionStore) Take(name string) (payload interface{}, err error, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	comp, found := c.pending[name]
	if !found {
		return nil, nil, false
	}
	delete(c.pending, name)
	return comp.payload, comp.err, true
}

// SyncPoint tells an upload job's Ready check (consulted by
// RunMainThreadJobs, which never blocks on it) whether its paired disk job
// has produced a completion entry, without locking the CompletionStore on
// every frame. A disk job calls Signal exactly once, success or failure.
type SyncPoint struct {
	done chan struct{}
	once sync.Once
}

// NewSyncPoint returns a SyncPoint in the not-done state.
func NewSyncPoint() *SyncPoint {
	return &SyncPoint{done: make(chan struct{})}
}

// Signal marks the sync point done. Safe to call more than once; only the
// first call has effect.
func (s *SyncPoint) Signal() {
	s.once.Do(func() { close(s.done) })
}

// Wait blocks until Signal has been called.
func (s *SyncPoint) Wait() {
	<-s.done
}

// Ready reports whether Signal has already been called, without blocking.
func (s *SyncPoint) Ready() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// DiskLoader decodes an asset from storage into an upload-ready payload.
// Implementations live alongside the resource kind they serve (texture
// pixel decode, mesh data parse, shader bytecode read); the loader pipeline
// itself is agnostic to the payload shape.
type DiskLoader func(name string) (payload interface{}, err error)

// UploadFunc turns a disk-decoded payload into the resource's final,
// GPU-backed state. It always runs on the main thread.
type UploadFunc func(name string, payload interface{}) error

// LoadPipeline drives the two-stage disk-then-upload job pattern shared by
// every async-loadable resource kind (spec.md §4.5). One LoadPipeline is
// shared by all resource systems; callers distinguish resources only by
// name, which must be unique across the whole engine for a given kind.
type LoadPipeline struct {
	jobs  *JobSystem
	store *CompletionStore

	mu     sync.Mutex
	inFlight map[string]*SyncPoint
}

// NewLoadPipeline wires a LoadPipeline on top of an existing JobSystem.
func NewLoadPipeline(jobs *JobSystem) *LoadPipeline {
	return &LoadPipeline{
		jobs:     jobs,
		store:    NewCompletionStore(),
		inFlight: make(map[string]*SyncPoint),
	}
}

// Submit starts the disk stage for name if it isn't already loading, then
// queues the upload stage as a main-thread job gated on the disk stage's
// sync point: RunMainThreadJobs only runs it once the point is Ready,
// re-queuing it for a later frame otherwise, so a slow disk load never
// stalls the frame loop. onResult is invoked from the main thread after
// upload returns, success or failure, so the caller can flip the
// resource's LoadState.
//
// Submit is idempotent per name: calling it again while name is already
// in flight is a no-op, matching the "Unloaded -> Loading" transition
// being one-way until the load resolves.
func (p *LoadPipeline) Submit(name string, priority JobPriority, disk DiskLoader, upload UploadFunc, onResult func(err error)) {
	p.mu.Lock()
	if _, alreadyLoading := p.inFlight[name]; alreadyLoading {
		p.mu.Unlock()
		return
	}
	point := NewSyncPoint()
	p.inFlight[name] = point
	p.mu.Unlock()

	p.jobs.Submit(Job{
		Type:     JobTypeResourceLoad,
		Priority: priority,
		Run: func() error {
			payload, err := disk(name)
			p.store.Put(name, payload, err)
			point.Signal()
			return err
		},
	})

	p.jobs.Submit(Job{
		Type:     JobTypeMainThread,
		Priority: priority,
		Ready:    point.Ready,
		Run: func() error {
			payload, diskErr, ok := p.store.Take(name)

			p.mu.Lock()
			delete(p.inFlight, name)
			p.mu.Unlock()

			if !ok {
				core.LogError("load pipeline: completion missing for %q after sync signal", name)
				return fmt.Errorf("%w: completion missing for %q", core.ErrJobFailed, name)
			}
			if diskErr != nil {
				return diskErr
			}
			return upload(name, payload)
		},
		OnComplete: func() {
			if onResult != nil {
				onResult(nil)
			}
		},
		OnFailure: func(err error) {
			if onResult != nil {
				onResult(err)
			}
		},
	})
}

// IsLoading reports whether name currently has a load in flight.
func (p *LoadPipeline) IsLoading(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.inFlight[name]
	return ok
}
