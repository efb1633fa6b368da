// Package coordinator implements the shared refresh cycle: one
// sequential GET per distinct endpoint, an all-or-nothing swap of the
// data cache and a synthesised connectivity record reflecting the cycle
// outcome.
package coordinator
