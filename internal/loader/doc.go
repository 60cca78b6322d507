// Package loader ingests the delimited USDA source files into typed raw
// entity tables.
//
// Each entity declares a Schema: an ordered list of columns with a type
// (integer, float, or bounded text). Cells matching a configurable null-token
// set become nil. A row that fails coercion on any column is rejected and
// counted; rejection never fails the batch. Loading is total: the caller
// publishes the returned slice as a full replacement for the raw table, so
// re-running with the same input is a no-op with respect to final state.
package loader
