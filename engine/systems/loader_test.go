package systems

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCompletionStorePutTakeIsDestructive(t *testing.T) {
	store := NewCompletionStore()
	store.Put("rock.png", []byte{1, 2, 3}, nil)

	payload, err, ok := store.Take("rock.png")
	if !ok || err != nil {
		t.Fatalf("expected a completion, got ok=%v err=%v", ok, err)
	}
	if b, isBytes := payload.([]byte); !isBytes || len(b) != 3 {
		t.Fatalf("unexpected payload: %#v", payload)
	}

	if _, _, ok := store.Take("rock.png"); ok {
		t.Fatalf("expected second Take to find nothing, completion should be consumed")
	}
}

func TestCompletionStoreTakeMissingIsNotOK(t *testing.T) {
	store := NewCompletionStore()
	if _, _, ok := store.Take("nope.png"); ok {
		t.Fatalf("expected ok=false for a name with no completion")
	}
}

func TestSyncPointWaitUnblocksOnSignal(t *testing.T) {
	sp := NewSyncPoint()
	if sp.Ready() {
		t.Fatalf("fresh sync point should not be ready")
	}

	done := make(chan struct{})
	go func() {
		sp.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatalf("Wait returned before Signal was called")
	case <-time.After(20 * time.Millisecond):
	}

	sp.Signal()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Wait did not unblock after Signal")
	}
	if !sp.Ready() {
		t.Fatalf("sync point should report ready after Signal")
	}
}

func TestSyncPointSignalIsIdempotent(t *testing.T) {
	sp := NewSyncPoint()
	sp.Signal()
	sp.Signal() // must not panic (close of a closed channel)
	sp.Wait()
}

func TestLoadPipelineSuccessRunsUploadOnMainThread(t *testing.T) {
	jobs, err := NewJobSystem(2, 8)
	if err != nil {
		t.Fatalf("NewJobSystem: %v", err)
	}
	defer jobs.Shutdown()

	pipeline := NewLoadPipeline(jobs)

	var mu sync.Mutex
	var uploadedOnMainThread bool
	var resultErr error
	resultCh := make(chan struct{})

	pipeline.Submit("brick.png", JobPriorityNormal,
		func(name string) (interface{}, error) {
			return []byte("decoded-pixels"), nil
		},
		func(name string, payload interface{}) error {
			mu.Lock()
			uploadedOnMainThread = true
			mu.Unlock()
			return nil
		},
		func(err error) {
			resultErr = err
			close(resultCh)
		},
	)

	for i := 0; i < 200 && pipeline.IsLoading("brick.png"); i++ {
		jobs.RunMainThreadJobs()
		time.Sleep(time.Millisecond)
	}
	jobs.RunMainThreadJobs()

	select {
	case <-resultCh:
	case <-time.After(2 * time.Second):
		t.Fatalf("load never completed")
	}

	if resultErr != nil {
		t.Fatalf("expected success, got %v", resultErr)
	}
	mu.Lock()
	defer mu.Unlock()
	if !uploadedOnMainThread {
		t.Fatalf("upload must run via RunMainThreadJobs")
	}
}

func TestLoadPipelineDiskFailurePropagatesWithoutUpload(t *testing.T) {
	jobs, err := NewJobSystem(2, 8)
	if err != nil {
		t.Fatalf("NewJobSystem: %v", err)
	}
	defer jobs.Shutdown()

	pipeline := NewLoadPipeline(jobs)
	wantErr := errors.New("disk read failed")

	uploadCalled := false
	resultCh := make(chan error, 1)

	pipeline.Submit("broken.mesh", JobPriorityNormal,
		func(name string) (interface{}, error) {
			return nil, wantErr
		},
		func(name string, payload interface{}) error {
			uploadCalled = true
			return nil
		},
		func(err error) {
			resultCh <- err
		},
	)

	for i := 0; i < 200 && pipeline.IsLoading("broken.mesh"); i++ {
		jobs.RunMainThreadJobs()
		time.Sleep(time.Millisecond)
	}
	jobs.RunMainThreadJobs()

	select {
	case err := <-resultCh:
		if !errors.Is(err, wantErr) && err.Error() != wantErr.Error() {
			t.Fatalf("expected disk error to propagate, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("load never completed")
	}
	if uploadCalled {
		t.Fatalf("upload must not run when the disk stage fails")
	}
}

func TestRunMainThreadJobsDoesNotBlockOnUnsignaledUpload(t *testing.T) {
	jobs, err := NewJobSystem(1, 8)
	if err != nil {
		t.Fatalf("NewJobSystem: %v", err)
	}
	defer jobs.Shutdown()

	pipeline := NewLoadPipeline(jobs)
	release := make(chan struct{})

	disk := func(name string) (interface{}, error) {
		<-release
		return "payload", nil
	}
	upload := func(name string, payload interface{}) error { return nil }

	pipeline.Submit("huge.tex", JobPriorityNormal, disk, upload, nil)

	// The disk stage is still blocked on release, so its SyncPoint is not
	// Ready; RunMainThreadJobs must return immediately rather than waiting
	// on it, re-queuing the upload job for a later call.
	done := make(chan struct{})
	go func() {
		jobs.RunMainThreadJobs()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("RunMainThreadJobs blocked on an upload job whose disk stage had not signaled yet")
	}

	if !pipeline.IsLoading("huge.tex") {
		t.Fatalf("expected huge.tex to still be in flight")
	}

	close(release)
	for i := 0; i < 200 && pipeline.IsLoading("huge.tex"); i++ {
		jobs.RunMainThreadJobs()
		time.Sleep(time.Millisecond)
	}
	jobs.RunMainThreadJobs()

	if pipeline.IsLoading("huge.tex") {
		t.Fatalf("expected huge.tex load to eventually complete once the disk stage signaled")
	}
}

func TestLoadPipelineSubmitIsIdempotentWhileInFlight(t *testing.T) {
	jobs, err := NewJobSystem(1, 8)
	if err != nil {
		t.Fatalf("NewJobSystem: %v", err)
	}
	defer jobs.Shutdown()

	pipeline := NewLoadPipeline(jobs)
	release := make(chan struct{})

	var mu sync.Mutex
	calls := 0

	disk := func(name string) (interface{}, error) {
		<-release
		mu.Lock()
		calls++
		mu.Unlock()
		return "payload", nil
	}
	upload := func(name string, payload interface{}) error { return nil }

	pipeline.Submit("slow.tex", JobPriorityNormal, disk, upload, nil)
	if !pipeline.IsLoading("slow.tex") {
		t.Fatalf("expected slow.tex to be in flight")
	}
	pipeline.Submit("slow.tex", JobPriorityNormal, disk, upload, nil)

	close(release)
	for i := 0; i < 200 && pipeline.IsLoading("slow.tex"); i++ {
		jobs.RunMainThreadJobs()
		time.Sleep(time.Millisecond)
	}
	jobs.RunMainThreadJobs()

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected disk loader to run exactly once, ran %d times", calls)
	}
}
