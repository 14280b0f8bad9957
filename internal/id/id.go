// Package id generates prefixed identifiers for scaling jobs and their artifacts.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes in use.
const (
	PrefixJob      = "job"
	PrefixArtifact = "art"
)

// keyAlphabet omits '-' and '_' so IDs are safe as path and object-key segments
// without escaping.
const keyAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "job-V1StGXR8Z5jdHi6BmyTq1").
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.Generate(keyAlphabet, 21)
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

// NewJob returns a fresh job identifier.
func NewJob() (string, error) {
	return Generate(PrefixJob)
}

// NewArtifact returns a fresh artifact identifier.
func NewArtifact() (string, error) {
	return Generate(PrefixArtifact)
}
