package utils

import (
	"github.com/google/uuid"
)

// GenerateID generates a unique identifier
func GenerateID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// MustGenerateID generates a unique identifier, panicking on failure
func MustGenerateID() string {
	return uuid.NewString()
}
