// Package service contains small infrastructure adapters behind the
// domain's collaborator interfaces.
package service

import (
	"github.com/google/uuid"
)

// UUIDGenerator implements shared.IDGenerator with random UUIDv4
// identifiers.
type UUIDGenerator struct{}

// NewUUIDGenerator creates a new UUIDGenerator.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// GenerateID returns a new UUID in canonical string form.
func (g *UUIDGenerator) GenerateID() string {
	return uuid.NewString()
}
