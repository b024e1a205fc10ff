// Package morton builds Z-order keys from the raw X and Y coordinates of
// LAS points.
package morton

// Expand spreads the 32 bits of v over the even bit positions of a 64 bit
// word.
func Expand(v uint32) uint64 {
	x := uint64(v)
	x = (x ^ x<<16) & 0x0000FFFF0000FFFF
	x = (x ^ x<<8) & 0x00FF00FF00FF00FF
	x = (x ^ x<<4) & 0x0F0F0F0F0F0F0F0F
	x = (x ^ x<<2) & 0x3333333333333333
	x = (x ^ x<<1) & 0x5555555555555555
	return x
}

// compact is the inverse of Expand, odd bits are ignored
func compact(x uint64) uint32 {
	x &= 0x5555555555555555
	x = (x ^ x>>1) & 0x3333333333333333
	x = (x ^ x>>2) & 0x0F0F0F0F0F0F0F0F
	x = (x ^ x>>4) & 0x00FF00FF00FF00FF
	x = (x ^ x>>8) & 0x0000FFFF0000FFFF
	x = (x ^ x>>16) & 0x00000000FFFFFFFF
	return uint32(x)
}

// Encode interleaves x into the odd bits and y into the even bits
func Encode(x, y uint32) uint64 {
	return Expand(x)<<1 | Expand(y)
}

// Decode returns the x and y an Encode call was given
func Decode(key uint64) (x, y uint32) {
	return compact(key >> 1), compact(key)
}
