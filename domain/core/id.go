package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RunID       ID
	DatasetName string
)

func (id RunID) String() string      { return ID(id).String() }
func (n DatasetName) String() string { return string(n) }
func (n DatasetName) IsEmpty() bool  { return strings.TrimSpace(string(n)) == "" }

// NewRunID creates a fresh run identifier
func NewRunID() RunID {
	return RunID(NewID())
}

// ParseDatasetName validates a dataset name from external input
func ParseDatasetName(s string) (DatasetName, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("dataset name cannot be empty")
	}
	return DatasetName(s), nil
}
