// Package serializer converts configuration blobs to and from the file
// formats the vehicle tools exchange.
package serializer

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Serializer turns file contents into a blob and back.
type Serializer interface {
	// Name is the --type value that selects the serializer.
	Name() string
	// Extension is the default file extension, without the dot.
	Extension() string
	Decode(raw []byte) ([]byte, error)
	Encode(blob []byte) []byte
}

// New returns the serializer registered under name.
func New(name string) (Serializer, error) {
	switch name {
	case "binary":
		return Binary{}, nil
	case "hex":
		return Hex{}, nil
	}
	return nil, fmt.Errorf("unknown config type %s", name)
}

// ChecksumError indicates a binary file whose trailing CRC does not match its contents.
type ChecksumError struct {
	Expected byte
	Actual   byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: file has 0x%02X, contents give 0x%02X", e.Actual, e.Expected)
}

// Binary is the on-vehicle VehicleConfig.bin layout: the blob followed by a
// single CRC-8 byte.
type Binary struct{}

func (Binary) Name() string      { return "binary" }
func (Binary) Extension() string { return "bin" }

// Decode strips the trailing checksum byte without checking it.
func (Binary) Decode(raw []byte) ([]byte, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("binary config of %d bytes is too short", len(raw))
	}
	blob := make([]byte, len(raw)-1)
	copy(blob, raw)
	return blob, nil
}

// Encode appends the checksum of blob.
func (Binary) Encode(blob []byte) []byte {
	out := make([]byte, len(blob), len(blob)+1)
	copy(out, blob)
	return append(out, CRC8(blob))
}

// Verify checks the trailing checksum byte of a raw binary file.
func (Binary) Verify(raw []byte) error {
	if len(raw) < 2 {
		return fmt.Errorf("binary config of %d bytes is too short", len(raw))
	}
	body, stored := raw[:len(raw)-1], raw[len(raw)-1]
	if sum := CRC8(body); sum != stored {
		return &ChecksumError{Expected: sum, Actual: stored}
	}
	return nil
}

// Hex stores the blob as a hex string with no checksum.
type Hex struct{}

func (Hex) Name() string      { return "hex" }
func (Hex) Extension() string { return "hex" }

// Decode ignores whitespace, including line breaks, between digits.
func (Hex) Decode(raw []byte) ([]byte, error) {
	digits := strings.Join(strings.Fields(string(raw)), "")
	blob, err := hex.DecodeString(digits)
	if err != nil {
		return nil, fmt.Errorf("invalid hex config: %w", err)
	}
	return blob, nil
}

func (Hex) Encode(blob []byte) []byte {
	return []byte(hex.EncodeToString(blob))
}
