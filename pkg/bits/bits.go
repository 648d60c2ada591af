// Package bits reads and writes bit runs of arbitrary alignment and width
// inside a byte buffer.
//
// Bit 0 is the least significant bit of the byte at the starting offset.
// A run that passes bit 7 continues with bit 0 of the next byte, and each
// further bit is more significant than the last, so multi-byte runs are
// little-endian.
package bits

import (
	"strconv"

	"github.com/tosih/vehicle-config-tool/pkg/models"
)

// ReadBits returns width bits starting at bit bitOffset of buf[byteOffset].
func ReadBits(buf []byte, byteOffset int, bitOffset, width uint) (uint64, error) {
	if err := checkRange(buf, byteOffset, bitOffset, width); err != nil {
		return 0, err
	}

	var value uint64
	pos := uint(byteOffset)*8 + bitOffset
	for done := uint(0); done < width; {
		shift := pos % 8
		n := min(8-shift, width-done)
		chunk := uint64(buf[pos/8]>>shift) & (1<<n - 1)
		value |= chunk << done
		done += n
		pos += n
	}
	return value, nil
}

// WriteBits stores the low width bits of value at the given position and
// leaves every other bit of buf untouched. Nothing is written on error.
func WriteBits(buf []byte, byteOffset int, bitOffset, width uint, value uint64) error {
	if err := checkRange(buf, byteOffset, bitOffset, width); err != nil {
		return err
	}
	if width < 64 && value>>width != 0 {
		return &models.ValueOverflowError{Value: strconv.FormatUint(value, 10), BitWidth: width}
	}

	pos := uint(byteOffset)*8 + bitOffset
	for done := uint(0); done < width; {
		shift := pos % 8
		n := min(8-shift, width-done)
		mask := byte(1<<n-1) << shift
		chunk := byte(value>>done) << shift
		i := pos / 8
		buf[i] = buf[i]&^mask | chunk&mask
		done += n
		pos += n
	}
	return nil
}

func checkRange(buf []byte, byteOffset int, bitOffset, width uint) error {
	end := (uint64(byteOffset)*8 + uint64(bitOffset) + uint64(width) + 7) / 8
	if byteOffset < 0 || bitOffset > 7 || width == 0 || width > models.MaxBitWidth || end > uint64(len(buf)) {
		return &models.RangeError{
			ByteOffset: byteOffset,
			BitOffset:  bitOffset,
			BitWidth:   width,
			BufferLen:  len(buf),
		}
	}
	return nil
}
