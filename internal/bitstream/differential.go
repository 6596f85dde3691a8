package bitstream

// Decoder undoes the differential encoding of the RDS symbol stream.
// The subcarrier is modulated so that each data bit is carried by the
// transition between consecutive symbols: data = raw XOR previous raw.
type Decoder struct {
	prev byte
}

// NewDecoder creates a differential decoder. The one-symbol history is
// seeded to 0, so at most the very first output bit is a transient.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Process decodes a block of raw symbols into NRZ data bits. Symbols are
// one per byte; any nonzero low bit counts as a mark. The output has the
// same length as the input, and processing a stream in chunks yields the
// same bits as processing it whole.
func (d *Decoder) Process(raw []byte) []byte {
	if len(raw) == 0 {
		return nil
	}
	out := make([]byte, len(raw))
	prev := d.prev

	for i, s := range raw {
		s &= 1
		out[i] = s ^ prev
		prev = s
	}

	d.prev = prev
	return out
}

// Reset clears the symbol history back to the seeded state.
func (d *Decoder) Reset() {
	d.prev = 0
}
