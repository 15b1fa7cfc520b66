package model

import (
	"time"

	"github.com/google/uuid"
)

// Photo is an image attached to a vehicle or a damage record.
type Photo struct {
	ID          string    `json:"id"`
	ImageData   []byte    `json:"imageData"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
}

// NewPhoto creates a photo with a fresh ID taken at the given time.
func NewPhoto(imageData []byte, description string, takenAt time.Time) Photo {
	return Photo{
		ID:          uuid.NewString(),
		ImageData:   imageData,
		Timestamp:   takenAt,
		Description: description,
	}
}
