// Package observability provides the training event log and the statistics
// the monitors derive on demand from the tabular metrics files.
package observability
