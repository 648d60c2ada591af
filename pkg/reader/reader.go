// Package reader loads map sources and configuration files from disk.
package reader

import (
	"errors"
	"fmt"
	"os"

	"github.com/tosih/vehicle-config-tool/pkg/proptext"
	"github.com/tosih/vehicle-config-tool/pkg/serializer"
)

// BlobFile is a decoded configuration file.
type BlobFile struct {
	Path string
	Blob []byte
	// ChecksumErr is set when a binary file's trailing CRC is wrong.
	ChecksumErr *serializer.ChecksumError
}

// ReadBlobFile reads path with s. A bad checksum is reported in the
// result rather than as an error so callers can decide how strict to be.
func ReadBlobFile(path string, s serializer.Serializer) (*BlobFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	blob, err := s.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	file := &BlobFile{Path: path, Blob: blob}
	if bin, ok := s.(serializer.Binary); ok {
		var sumErr *serializer.ChecksumError
		if err := bin.Verify(raw); errors.As(err, &sumErr) {
			file.ChecksumErr = sumErr
		}
	}
	return file, nil
}

// ReadTextFile reads a property text file into lines.
func ReadTextFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return proptext.ReadLines(f)
}
