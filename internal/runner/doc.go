// Package runner is the local driver of a pipeline run. For a validated
// pipeline and an execution context it asks the scheduler for an order,
// resolves each job's inputs, invokes the job's component through a Backend
// and records the produced artifacts so later jobs can reference them.
//
// Every job follows the same state machine:
//
//	pending -> resolving -> running -> succeeded | failed
//	pending -> skipped      (a failed or skipped job upstream)
//
// Jobs run sequentially on the calling goroutine.
package runner
