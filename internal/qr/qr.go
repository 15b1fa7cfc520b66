// Package qr renders vehicle VINs as scannable QR codes.
package qr

import (
	"errors"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the edge length in pixels of a generated code.
const DefaultSize = 512

// VIN encodes the bare VIN (whitespace trimmed, no extra formatting) as a
// PNG QR code with high error correction for reliable scanning.
func VIN(vin string, size int) ([]byte, error) {
	trimmed := strings.TrimSpace(vin)
	if trimmed == "" {
		return nil, errors.New("vin is empty")
	}
	if size <= 0 {
		size = DefaultSize
	}

	data, err := qrcode.Encode(trimmed, qrcode.High, size)
	if err != nil {
		return nil, fmt.Errorf("encoding vin qr code: %w", err)
	}
	return data, nil
}
