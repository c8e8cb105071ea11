// Package pipeline implements the ingest, merge, derive, reduce and
// classify stages that turn two raw indicator series into a single
// classified per-country table.
//
// Each stage consumes an immutable input and produces a fresh output; no
// stage mutates a table it did not build. The Runner wires the stages
// together, halts on the distinct no-data and no-overlap conditions, and
// reports progress through an optional callback so a front end can stream
// status without sharing pipeline state.
package pipeline
