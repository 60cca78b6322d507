// Package pipeline orchestrates the nutrition data transformation as a
// single-threaded, stage-ordered batch computation. Each stage is a
// set-based transform over complete input tables and publishes its full
// output before the next stage reads it.
//
// Published tables live in a versioned snapshot store: publishing swaps the
// active version atomically, so a failed stage never exposes a partially
// written table and the previously published version stays visible. Row
// defects never escalate to stage failure; only structural problems
// (missing source file, missing input table) abort the run.
package pipeline
