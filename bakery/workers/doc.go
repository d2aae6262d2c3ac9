// Package workers holds the repeating production, finishing and restocking tasks.
//
// A Producer or Finisher owns one staffing slot. It looks its role up on every iteration, so a reassignment
// takes effect the next time the loop comes around. Every consumption re-validates under lock what the
// availability check only suggested; a lost race is retried after a short pause.
package workers
