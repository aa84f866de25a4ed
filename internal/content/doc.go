// Package content defines the persistence contracts of the archetype
// engine: the three fixed archetype content sections with their write
// restrictions and priority lookup, the subject class-state records the
// applicator owns, and the store interfaces the sqlite and memory
// backends implement.
package content
