package service

import (
	"context"
	"strings"

	"github.com/louisbranch/archetype-engine/internal/content"
)

// PathResolver derives a display name from the final dot segment of a
// reference path ("Compendium.pf.class-abilities.armor-training-1" →
// "Armor Training 1"). It is the fallback resolver for binaries that run
// without a compendium index; a host environment supplies a real one.
type PathResolver struct{}

// Resolve implements NameResolver.
func (PathResolver) Resolve(_ context.Context, uuid string) (string, error) {
	trimmed := strings.TrimSpace(uuid)
	if trimmed == "" {
		return "", content.ErrNotFound
	}
	segment := trimmed
	if idx := strings.LastIndex(trimmed, "."); idx >= 0 {
		segment = trimmed[idx+1:]
	}
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "", content.ErrNotFound
	}

	words := strings.FieldsFunc(segment, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, word := range words {
		words[i] = titleWord(word)
	}
	return strings.Join(words, " "), nil
}

func titleWord(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}

// MapResolver resolves names from a fixed table. Tests and seed tooling
// use it in place of a host compendium.
type MapResolver map[string]string

// Resolve implements NameResolver.
func (m MapResolver) Resolve(_ context.Context, uuid string) (string, error) {
	name, ok := m[uuid]
	if !ok {
		return "", content.ErrNotFound
	}
	return name, nil
}
