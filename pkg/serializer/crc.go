package serializer

// CRC-8 parameters of the vehicle config checksum.
const (
	// CRC8Polynomial is x^8 + x^2 + x + 1
	CRC8Polynomial = 0x07

	// CRC8InitialValue is the register value before the first byte
	CRC8InitialValue = 0x00

	// BitsPerByte is the number of bits per byte
	BitsPerByte = 8
)

// CRC8 computes the checksum appended to binary configs. No reflection,
// no final XOR.
func CRC8(data []byte) byte {
	crc := byte(CRC8InitialValue)
	for _, b := range data {
		crc ^= b
		for i := 0; i < BitsPerByte; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ CRC8Polynomial
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
