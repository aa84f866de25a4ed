// Package service assembles the archetype pipeline over the pure domain:
// parsing external archetype documents into typed archetypes, guarding
// candidates against already-applied archetypes, and committing or
// reverting diffs on a subject's class items with per-subject locking.
package service
