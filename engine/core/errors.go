package core

import (
	"errors"
)

var (
	ErrSwapchainBooting = errors.New("swapchain resized or recreated, booting")
	ErrUnknown          = errors.New("unknown")

	// ErrHandleInvalid marks a stale or never-allocated handle. Always
	// recovered locally by the caller (fallback resource or None).
	ErrHandleInvalid = errors.New("handle invalid or stale")
	// ErrResourceNotFound marks a missing named asset. Recovered locally
	// with a fallback resource.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrResourceCorrupt marks a parse/decode failure. Surfaced as a
	// Failed state; the consumer uses the fallback resource.
	ErrResourceCorrupt = errors.New("resource corrupt")
	// ErrCapacityExhausted marks a full slot table. Returned as an
	// invalid handle; the caller logs and proceeds with a fallback.
	ErrCapacityExhausted = errors.New("capacity exhausted")
	// ErrBackendTransient marks a transient RHI condition (e.g. swapchain
	// out-of-date). The current frame is skipped; the next retries.
	ErrBackendTransient = errors.New("backend transient failure")
	// ErrBackendFatal marks an unrecoverable RHI condition (device lost,
	// out of memory). Propagated up to the application shell.
	ErrBackendFatal = errors.New("backend fatal failure")
	// ErrGraphCycle marks a frame-level render graph configuration error:
	// the declared reads/writes form a cycle. The frame is skipped.
	ErrGraphCycle = errors.New("render graph contains a cycle")
	// ErrGraphMissingProducer marks a virtual resource read with no
	// writer in the current frame's graph.
	ErrGraphMissingProducer = errors.New("render graph resource has no producer")
	// ErrJobFailed wraps a job failure reason, carried on a sync point.
	ErrJobFailed = errors.New("job failed")
)
