package abi

// StatusHighBits is the shift applied to the status half of a packed result.
const StatusHighBits = 32

// PackResult packs a status code and a handle into a single uint64.
// The status is stored in the high 32 bits, the handle in the low 32 bits.
func PackResult(status uint32, h Handle) uint64 {
	return (uint64(status) << StatusHighBits) | uint64(h)
}

// UnpackResult splits a value produced by PackResult.
func UnpackResult(packed uint64) (status uint32, h Handle) {
	return uint32(packed >> StatusHighBits), Handle(uint32(packed))
}
