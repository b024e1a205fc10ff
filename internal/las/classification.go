package las

import "fmt"

const (
	classMask     = 0x1F
	syntheticBit  = 0x20
	keyPointBit   = 0x40
	withheldBit   = 0x80
	ClassCount    = 32
	classNameNone = "Reserved for ASPRS Definition"
)

var classNames = [ClassCount]string{
	0:  "Created, never classified",
	1:  "Unclassified",
	2:  "Ground",
	3:  "Low Vegetation",
	4:  "Medium Vegetation",
	5:  "High Vegetation",
	6:  "Building",
	7:  "Low Point (noise)",
	8:  "Model Key-point (mass point)",
	9:  "Water",
	10: classNameNone,
	11: classNameNone,
	12: "Overlap Points",
}

// Classification is the classification byte of a point record: the class
// index in bits 0-4, synthetic in bit 5, key-point in bit 6, withheld in bit 7
type Classification uint8

// NewClassification packs a class index and the three flags. Class indexes
// above 31 are masked to five bits.
func NewClassification(class uint8, synthetic, keyPoint, withheld bool) Classification {
	c := Classification(class & classMask)
	if synthetic {
		c |= syntheticBit
	}
	if keyPoint {
		c |= keyPointBit
	}
	if withheld {
		c |= withheldBit
	}
	return c
}

func (c Classification) Class() uint8 {
	return uint8(c) & classMask
}

func (c Classification) IsSynthetic() bool {
	return c&syntheticBit != 0
}

func (c Classification) IsKeyPoint() bool {
	return c&keyPointBit != 0
}

func (c Classification) IsWithheld() bool {
	return c&withheldBit != 0
}

// WithClass replaces the class index and keeps the flags
func (c Classification) WithClass(class uint8) Classification {
	return c&^classMask | Classification(class&classMask)
}

func (c Classification) Byte() uint8 {
	return uint8(c)
}

// Name is the ASPRS standard name of the class index
func (c Classification) Name() string {
	return ClassName(c.Class())
}

func (c Classification) String() string {
	return fmt.Sprintf("%d (%s)", c.Class(), c.Name())
}

// ClassName returns the ASPRS name of a class index
func ClassName(class uint8) string {
	class &= classMask
	if n := classNames[class]; n != "" {
		return n
	}
	return classNameNone
}

// Color holds the 16 bit RGB channels of formats 2 and 3
type Color struct {
	Red   uint16
	Green uint16
	Blue  uint16
}
