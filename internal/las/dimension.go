package las

// Names of the dimensions the codec knows how to interpret
const (
	DimX               = "X"
	DimY               = "Y"
	DimZ               = "Z"
	DimIntensity       = "Intensity"
	DimReturnNumber    = "ReturnNumber"
	DimNumberOfReturns = "NumberOfReturns"
	DimScanDirection   = "ScanDirection"
	DimFlightLineEdge  = "FlightlineEdge"
	DimClassification  = "Classification"
	DimScanAngleRank   = "ScanAngleRank"
	DimUserData        = "UserData"
	DimPointSourceID   = "PointSourceID"
	DimTime            = "Time"
	DimRed             = "Red"
	DimGreen           = "Green"
	DimBlue            = "Blue"
)

// Dimension describes one named field of a point record
type Dimension struct {
	Name        string
	BitSize     uint32
	IsRequired  bool
	IsActive    bool
	Description string

	// position within the record, assigned by the owning Schema
	bitOffset uint32
}

// NewDimension builds a user-defined, non-required dimension
func NewDimension(name string, bitSize uint32, description string) Dimension {
	return Dimension{
		Name:        name,
		BitSize:     bitSize,
		IsRequired:  false,
		IsActive:    true,
		Description: description,
	}
}

// BitOffset is the offset in bits from the start of the record
func (d Dimension) BitOffset() uint32 {
	return d.bitOffset
}

// ByteOffset is the index of the byte holding the first bit of the dimension
func (d Dimension) ByteOffset() uint32 {
	return d.bitOffset / 8
}

// ByteSize is the whole number of bytes the dimension occupies, 0 for sub-byte fields
func (d Dimension) ByteSize() uint32 {
	return d.BitSize / 8
}

func requiredDimension(name string, bitSize uint32, description string) Dimension {
	return Dimension{
		Name:        name,
		BitSize:     bitSize,
		IsRequired:  true,
		IsActive:    true,
		Description: description,
	}
}

// readBits extracts size bits starting at bit offset off, least significant bit first
func readBits(buf []byte, off, size uint32) uint64 {
	start := off / 8
	shift := off % 8
	n := (shift + size + 7) / 8

	var v uint64
	for i := uint32(0); i < n; i++ {
		b := uint64(buf[start+i])
		if i == 0 {
			v = b >> shift
		} else {
			v |= b << (8*i - shift)
		}
	}
	if size < 64 {
		v &= (uint64(1) << size) - 1
	}
	return v
}

// writeBits stores the low size bits of v at bit offset off. Bits outside the
// field are left untouched and bits of v above size are dropped.
func writeBits(buf []byte, off, size uint32, v uint64) {
	for i := uint32(0); i < size; {
		pos := off + i
		idx := pos / 8
		bit := pos % 8

		n := 8 - bit
		if size-i < n {
			n = size - i
		}

		fieldMask := byte((1<<n)-1) << bit
		chunk := byte((v>>i)&((1<<n)-1)) << bit
		buf[idx] = buf[idx]&^fieldMask | chunk
		i += n
	}
}
