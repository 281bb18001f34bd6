// Package app wires the graph core into a runnable application: it scans the
// repository, loads declarations, builds the capability registry with the
// built-in kinds, and exposes the query commands the CLI dispatches to.
package app
