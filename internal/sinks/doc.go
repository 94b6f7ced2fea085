// Package sinks dispatches the side effects of queue mutations (printing a
// ticket, playing the cue) without holding up the mutation itself.
package sinks
