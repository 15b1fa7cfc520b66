package model

import (
	"time"

	"github.com/google/uuid"
)

// DamageRecord describes reported damage on a vehicle.
type DamageRecord struct {
	ID           string    `json:"id"`
	Description  string    `json:"description"`
	DateReported time.Time `json:"dateReported"`
	IsNewDamage  bool      `json:"isNewDamage"`
	Photos       []Photo   `json:"photos"`
}

// NewDamageRecord creates a damage record with a fresh ID, reported at the
// given time.
func NewDamageRecord(description string, isNewDamage bool, photos []Photo, reportedAt time.Time) DamageRecord {
	if photos == nil {
		photos = []Photo{}
	}
	return DamageRecord{
		ID:           uuid.NewString(),
		Description:  description,
		DateReported: reportedAt,
		IsNewDamage:  isNewDamage,
		Photos:       photos,
	}
}
