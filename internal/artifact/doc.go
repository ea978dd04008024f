// Package artifact provides the run-scoped table that maps a job output,
// addressed by config.Reference, to the concrete location it was
// materialized at.
//
// # Characteristics
//
//   - **Ephemeral:** Created fresh for each pipeline run and discarded at its end.
//   - **Append-only:** An entry is written once, after the producing job succeeds.
//   - **Single writer:** The runner is the only writer and executes jobs
//     sequentially, so the table carries no locking.
//
// If independent branches are ever dispatched concurrently, this table is
// one of the two pieces of shared state that would need synchronisation.
package artifact
