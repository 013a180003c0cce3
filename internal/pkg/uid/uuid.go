package uid

import "github.com/google/uuid"

// UUID generates time ordered UUIDv7 strings for correlation and token ids.
type UUID struct{}

func NewUUID() *UUID {
	return &UUID{}
}

func (*UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
