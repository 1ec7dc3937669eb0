package core

// Decoded is the routing of one cycle's input buses.
type Decoded struct {
	Selector uint8      // Op (split) or OpSel (direct).
	Load     LoadSelect // Split only: register pair to write.
	Data     uint8      // Split only: register pair data.
	Operands Operands   // Direct only: operands carried on the buses.
}

// Decode splits the two input buses into their fields for a protocol.
func Decode(protocol Protocol, ui, uio uint8) (dec Decoded) {
	switch protocol {
	case PROTOCOL_DIRECT:
		dec.Selector = (uio >> DIRECT_SEL_SHIFT) & PAIR_MASK
		dec.Operands = Operands{
			A: (ui >> DIRECT_A_SHIFT) & NIBBLE_MASK,
			B: (ui >> DIRECT_B_SHIFT) & NIBBLE_MASK,
			C: (uio >> DIRECT_C_SHIFT) & TRIAD_MASK,
			D: (uio >> DIRECT_D_SHIFT) & TRIAD_MASK,
		}
	default:
		dec.Selector = (ui >> SPLIT_OP_SHIFT) & NIBBLE_MASK
		dec.Load = LoadSelect((ui >> SPLIT_Q_SHIFT) & NIBBLE_MASK)
		dec.Data = uio
	}

	return
}

// EncodeSplit packs split protocol fields onto the two input buses.
func EncodeSplit(op uint8, q LoadSelect, hi, lo uint8) (ui, uio uint8) {
	ui = ((op & NIBBLE_MASK) << SPLIT_OP_SHIFT) | ((uint8(q) & NIBBLE_MASK) << SPLIT_Q_SHIFT)
	uio = ((hi & NIBBLE_MASK) << SPLIT_HI_SHIFT) | ((lo & NIBBLE_MASK) << SPLIT_LO_SHIFT)
	return
}

// EncodeDirect packs direct protocol fields onto the two input buses.
// C and D are truncated to their 3-bit fields.
func EncodeDirect(sel uint8, ops Operands) (ui, uio uint8) {
	ui = ((ops.A & NIBBLE_MASK) << DIRECT_A_SHIFT) | ((ops.B & NIBBLE_MASK) << DIRECT_B_SHIFT)
	uio = ((ops.C & TRIAD_MASK) << DIRECT_C_SHIFT) |
		((ops.D & TRIAD_MASK) << DIRECT_D_SHIFT) |
		((sel & PAIR_MASK) << DIRECT_SEL_SHIFT)
	return
}
