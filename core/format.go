package core

// MakeMagnitude creates a single magnitude result.
func MakeMagnitude(value uint16) Result {
	return Result{Format: FORMAT_MAGNITUDE, Magnitude: value}
}

// MakePacked creates a two field result.
func MakePacked(m, n uint8) Result {
	return Result{Format: FORMAT_PACKED, M: m, N: n}
}

// Pack returns the output bus byte for the result.
// Magnitudes are truncated to 8 bits, packed fields to 4 bits each.
func (res Result) Pack() uint8 {
	switch res.Format {
	case FORMAT_PACKED:
		return ((res.M & NIBBLE_MASK) << 4) | (res.N & NIBBLE_MASK)
	default:
		return uint8(res.Magnitude & 0xff)
	}
}

// Unpack splits an output bus byte into its two 4-bit fields.
func Unpack(out uint8) (m, n uint8) {
	m = (out >> 4) & NIBBLE_MASK
	n = out & NIBBLE_MASK
	return
}
