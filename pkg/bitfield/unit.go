package bitfield

// Unit1, Unit2, Unit4 and Unit8 are fixed-size bitfield storage units addressed in
// LSB0 order. They contain nothing but their bytes, so they can be embedded in
// header overlays without introducing padding.
type (
	Unit1 [1]byte
	Unit2 [2]byte
	Unit4 [4]byte
	Unit8 [8]byte
)

func (u Unit1) Get(start, width uint) uint64     { return LSB0.Get(u[:], start, width) }
func (u *Unit1) Set(start, width uint, v uint64) { LSB0.Set(u[:], start, width, v) }
func (u Unit1) Bit(i uint) bool                  { return LSB0.Bit(u[:], i) }
func (u *Unit1) SetBit(i uint, v bool)           { LSB0.SetBit(u[:], i, v) }

func (u Unit2) Get(start, width uint) uint64     { return LSB0.Get(u[:], start, width) }
func (u *Unit2) Set(start, width uint, v uint64) { LSB0.Set(u[:], start, width, v) }
func (u Unit2) Bit(i uint) bool                  { return LSB0.Bit(u[:], i) }
func (u *Unit2) SetBit(i uint, v bool)           { LSB0.SetBit(u[:], i, v) }

func (u Unit4) Get(start, width uint) uint64     { return LSB0.Get(u[:], start, width) }
func (u *Unit4) Set(start, width uint, v uint64) { LSB0.Set(u[:], start, width, v) }
func (u Unit4) Bit(i uint) bool                  { return LSB0.Bit(u[:], i) }
func (u *Unit4) SetBit(i uint, v bool)           { LSB0.SetBit(u[:], i, v) }

func (u Unit8) Get(start, width uint) uint64     { return LSB0.Get(u[:], start, width) }
func (u *Unit8) Set(start, width uint, v uint64) { LSB0.Set(u[:], start, width, v) }
func (u Unit8) Bit(i uint) bool                  { return LSB0.Bit(u[:], i) }
func (u *Unit8) SetBit(i uint, v bool)           { LSB0.SetBit(u[:], i, v) }
