// Package schedule orders and executes batches of tool calls that declare
// dependencies on one another. Schedule is a pure function producing
// execution groups via a round-based topological sort with a cycle-breaking
// fallback; Run executes groups respecting barrier/parallel semantics while
// isolating per-call failures.
package schedule
