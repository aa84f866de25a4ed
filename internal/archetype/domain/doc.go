// Package domain contains the pure archetype engine: feature
// classification, target matching, diff generation, and conflict
// detection over a class's base ability progression. Nothing in this
// package performs I/O; persistence and permissions live in the
// service and content packages.
package domain
