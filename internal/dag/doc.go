// Package dag is the scheduling layer of the application. It derives a
// directed graph from the references between a pipeline's jobs, detects
// cycles, and computes the deterministic order in which the runner executes
// the jobs.
//
// An edge `dep -> job` means that `job` consumes an output of `dep`, so
// `dep` must run first. Ordering is a depth-first traversal with three
// colours; jobs without an ordering constraint between them keep their
// declaration order as far as the dependencies allow.
package dag
