package core

// RegisterFile holds the four operand registers.
type RegisterFile struct {
	Register [4]uint8
}

// Reset forces all registers to zero.
func (rf *RegisterFile) Reset() {
	clear(rf.Register[:])
}

// Load writes a register pair from a bus byte, as selected by q.
// The high nibble goes to the first register of the pair.
// Unknown selectors write nothing.
func (rf *RegisterFile) Load(q LoadSelect, data uint8) (loaded bool) {
	var first Register
	switch q {
	case Q_LOAD_AB:
		first = REG_A
	case Q_LOAD_CD:
		first = REG_C
	default:
		return
	}

	rf.Register[first] = (data >> SPLIT_HI_SHIFT) & NIBBLE_MASK
	rf.Register[first+1] = (data >> SPLIT_LO_SHIFT) & NIBBLE_MASK

	return true
}

// Read returns the value of a register.
func (rf *RegisterFile) Read(reg Register) uint8 {
	return rf.Register[reg]
}

// Operands returns the register file contents as dispatcher operands.
func (rf *RegisterFile) Operands() Operands {
	return Operands{
		A: rf.Register[REG_A],
		B: rf.Register[REG_B],
		C: rf.Register[REG_C],
		D: rf.Register[REG_D],
	}
}
