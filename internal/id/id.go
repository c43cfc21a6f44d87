// Package id generates identifiers for runs and synthetic destination entities.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefix for destination IDs invented during a dry run.
const DryRunPrefix = "dryrun"

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "dryrun-V1StGXR8_Z5jdHi6B-myT").
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// IsSynthetic reports whether id was produced for a dry run.
func IsSynthetic(id string) bool {
	return len(id) > len(DryRunPrefix) && id[:len(DryRunPrefix)+1] == DryRunPrefix+"-"
}

// NewRunID returns a random UUID identifying one migration run.
func NewRunID() string {
	return uuid.NewString()
}
