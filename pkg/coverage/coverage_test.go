package coverage

import (
	"testing"

	"github.com/tosih/vehicle-config-tool/pkg/models"
)

func testMap(t *testing.T) *models.MapDefinition {
	t.Helper()
	def, err := models.NewMapDefinition(0x21, "gaps", 6, []models.FieldSpec{
		{Name: "seatHeater", ByteOffset: 3, BitOffset: 2, BitWidth: 1, Kind: models.Boolean},
		{Name: "AAA", ByteOffset: 0, BitWidth: 8, Kind: models.UnsignedInt},
		{Name: "region", ByteOffset: 1, BitOffset: 4, BitWidth: 12, Kind: models.UnsignedInt},
	})
	if err != nil {
		t.Fatalf("NewMapDefinition: %v", err)
	}
	return def
}

func TestScan(t *testing.T) {
	gaps := Scan(testMap(t))

	want := []Gap{
		{StartBit: 8, EndBit: 12},
		{StartBit: 24, EndBit: 26},
		{StartBit: 27, EndBit: 48},
	}
	if len(gaps) != len(want) {
		t.Fatalf("Scan() = %+v, want %+v", gaps, want)
	}
	for i := range want {
		if gaps[i] != want[i] {
			t.Errorf("gap %d = %+v, want %+v", i, gaps[i], want[i])
		}
	}

	if s := gaps[0].String(); s != "[1][3:0]" {
		t.Errorf("gap 0 String() = %s", s)
	}
	if first, last := gaps[2].Bytes(); first != 3 || last != 6 {
		t.Errorf("gap 2 Bytes() = %d, %d", first, last)
	}
}

func TestScanFullyMapped(t *testing.T) {
	def, err := models.NewMapDefinition(1, "full", 0, []models.FieldSpec{
		{Name: "a", ByteOffset: 0, BitWidth: 8, Kind: models.UnsignedInt},
		{Name: "b", ByteOffset: 1, BitWidth: 8, Kind: models.BitString},
	})
	if err != nil {
		t.Fatalf("NewMapDefinition: %v", err)
	}
	if gaps := Scan(def); len(gaps) != 0 {
		t.Errorf("Scan() = %+v, want none", gaps)
	}
	if n := MappedBits(def); n != 16 {
		t.Errorf("MappedBits() = %d", n)
	}
}

func TestChangedBits(t *testing.T) {
	gaps := Scan(testMap(t))
	a := []byte{0x21, 0x00, 0x00, 0x00, 0x00, 0x00}
	b := []byte{0x21, 0x0F, 0xFF, 0b00001011, 0x00, 0x80}

	// 4 bits in byte 1, bits 0,1 and 3 of byte 3, bit 7 of byte 5.
	// Byte 2 and bit 2 of byte 3 belong to fields.
	if n := ChangedBits(gaps, a, b); n != 8 {
		t.Errorf("ChangedBits() = %d, want 8", n)
	}
}

func TestPreview(t *testing.T) {
	g := Gap{StartBit: 8, EndBit: 48}
	blob := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05}

	if got := Preview(g, blob, 8); got != "01 02 03 04 05 " {
		t.Errorf("Preview() = %q", got)
	}
	if got := Preview(g, blob, 2); got != "01 02 ..." {
		t.Errorf("Preview() = %q", got)
	}
}
