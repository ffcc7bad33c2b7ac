package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewID returns a fresh 24 character hex identifier.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether id is a well-formed identity reference.
func ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}
