package asm

// bitWriter appends values MSB-first into a byte slice.
type bitWriter struct {
	buf  []byte
	bits int
}

func (w *bitWriter) write(v int64, width int) {
	for i := width - 1; i >= 0; i-- {
		bit := byte(0)
		if i < 64 && (uint64(v)>>uint(i))&1 == 1 {
			bit = 1
		}
		if w.bits%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		w.buf[len(w.buf)-1] |= bit << (7 - uint(w.bits%8))
		w.bits++
	}
}

func (w *bitWriter) bytes() []byte {
	return w.buf
}
