// Package coverage finds the bits of a blob that no map field describes.
// Those bits are carried through edits untouched.
package coverage

import (
	"fmt"
	"sort"

	"github.com/tosih/vehicle-config-tool/pkg/models"
)

// Gap is a run of unmapped bits.
type Gap struct {
	StartBit int
	EndBit   int
}

func (g Gap) ByteOffset() int { return g.StartBit / 8 }
func (g Gap) BitOffset() uint { return uint(g.StartBit % 8) }
func (g Gap) Width() int      { return g.EndBit - g.StartBit }

// Bytes returns the byte range [first, last) that the gap touches.
func (g Gap) Bytes() (int, int) {
	return g.StartBit / 8, (g.EndBit + 7) / 8
}

func (g Gap) String() string {
	return fmt.Sprintf("[%d][%d:%d]", g.ByteOffset(), int(g.BitOffset())+g.Width()-1, g.BitOffset())
}

// Scan lists the unmapped bit runs of def in ascending order.
func Scan(def *models.MapDefinition) []Gap {
	fields := make([]models.FieldSpec, len(def.Fields))
	copy(fields, def.Fields)
	sort.Slice(fields, func(i, j int) bool { return fields[i].StartBit() < fields[j].StartBit() })

	var gaps []Gap
	pos := 0
	for _, f := range fields {
		if f.StartBit() > pos {
			gaps = append(gaps, Gap{StartBit: pos, EndBit: f.StartBit()})
		}
		if f.EndBit() > pos {
			pos = f.EndBit()
		}
	}
	if total := def.Size * 8; pos < total {
		gaps = append(gaps, Gap{StartBit: pos, EndBit: total})
	}
	return gaps
}

// MappedBits counts the bits covered by fields.
func MappedBits(def *models.MapDefinition) int {
	n := 0
	for _, f := range def.Fields {
		n += int(f.BitWidth)
	}
	return n
}

// ChangedBits counts bits that differ between a and b inside gaps.
func ChangedBits(gaps []Gap, a, b []byte) int {
	n := 0
	for _, g := range gaps {
		for bit := g.StartBit; bit < g.EndBit; bit++ {
			i := bit / 8
			if i >= len(a) || i >= len(b) {
				break
			}
			if (a[i]^b[i])>>(bit%8)&1 != 0 {
				n++
			}
		}
	}
	return n
}

// Preview renders up to limit bytes of blob touched by g as hex.
func Preview(g Gap, blob []byte, limit int) string {
	first, last := g.Bytes()
	if last > len(blob) {
		last = len(blob)
	}
	preview := ""
	for i := first; i < last && i-first < limit; i++ {
		preview += fmt.Sprintf("%02X ", blob[i])
	}
	if last-first > limit {
		preview += "..."
	}
	return preview
}
