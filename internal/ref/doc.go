/*
Package ref parses the symbolic value expressions that may appear in a job's
input mapping and turns them into config.InputValue entries.

Expressions are dot-separated paths. Three roots are recognised:

	job.<job>.outputs.<output>           reference to another job's output
	input.<name>                         pipeline-level external input
	config.<key>                         environment configuration lookup

The orchestrator-compatible spellings `parent.jobs.<job>.outputs.<output>`
and `parent.inputs.<name>` are accepted as aliases, and YAML documents wrap
expressions in `${{ ... }}` (see Unwrap).
*/
package ref
