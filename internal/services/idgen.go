package services

import "github.com/google/uuid"

// IDGenerator mints opaque unique identifiers for entities created by the
// pipeline (chapters, lessons, content, blocks). Identity is always assigned
// locally, never taken from generator output, so every component that creates
// entities takes one of these instead of generating ids inline.
type IDGenerator interface {
	NewID() string
}

type uuidGenerator struct{}

// NewUUIDGenerator returns the default random-UUID-backed generator.
func NewUUIDGenerator() IDGenerator {
	return uuidGenerator{}
}

func (uuidGenerator) NewID() string {
	return uuid.NewString()
}
