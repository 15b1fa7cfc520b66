package store

import (
	"context"
	"database/sql"
	"strconv"
)

// Settings slots. Names match the original persisted format.
const (
	dspSlot        = "isDSP"
	onboardingSlot = "hasCompletedOnboarding"
)

func getBool(ctx context.Context, db *sql.DB, key string) (bool, error) {
	data, err := GetSlot(ctx, db, key)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	v, err := strconv.ParseBool(string(data))
	if err != nil {
		// Unreadable flag reads as unset.
		return false, nil
	}
	return v, nil
}

func setBool(ctx context.Context, db *sql.DB, key string, value bool) error {
	return SetSlot(ctx, db, key, []byte(strconv.FormatBool(value)))
}

// GetDSP reports whether the operator runs as a Delivery Service Partner.
// Defaults to false until set.
func GetDSP(ctx context.Context, db *sql.DB) (bool, error) {
	return getBool(ctx, db, dspSlot)
}

// SetDSP stores the DSP flag. Answering the DSP question is the last
// onboarding step, so this also marks onboarding complete.
func SetDSP(ctx context.Context, db *sql.DB, isDSP bool) error {
	if err := setBool(ctx, db, dspSlot, isDSP); err != nil {
		return err
	}
	return setBool(ctx, db, onboardingSlot, true)
}

// GetOnboardingComplete reports whether the user has finished onboarding.
func GetOnboardingComplete(ctx context.Context, db *sql.DB) (bool, error) {
	return getBool(ctx, db, onboardingSlot)
}
