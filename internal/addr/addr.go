// Package addr implements the frozen bit-field address decoder: a
// configurable map of contiguous, non-overlapping fields extracted from
// a physical address to produce Coordinates.
//
// This plays the role the teacher's internal/uapi package plays for the
// ublk kernel ABI — a small, table-driven bit-twiddling layer other
// packages build on — adapted from wire-struct marshaling to address
// bit-field extraction.
package addr

import "fmt"

// Field is a single bit-field: width bits starting at offset.
type Field struct {
	Width  uint8
	Offset uint8
}

// Value extracts this field's value from an address.
func (f Field) Value(address uint64) uint64 {
	if f.Width == 0 {
		return 0
	}
	mask := uint64(1)<<f.Width - 1
	return (address >> f.Offset) & mask
}

// Mapping is the frozen field layout, in the recognized low→high order:
// line, channel, column, bank, rank, row.
type Mapping struct {
	Line    Field
	Channel Field
	Column  Field
	Bank    Field
	Rank    Field
	Row     Field
}

// Coordinates is the decoded (channel, rank, bank, row, column) tuple.
// Channel/Rank/Bank are expected to fit comfortably in small unsigned
// integers; Row/Column are 32-bit.
type Coordinates struct {
	Channel uint8
	Rank    uint8
	Bank    uint8
	Row     uint32
	Column  uint32
}

// String renders Coordinates for debug logs, mirroring the original's
// operator<< overload on Coordinates (original_source/dram.h).
func (c Coordinates) String() string {
	return fmt.Sprintf("{channel:%d rank:%d bank:%d row:%d column:%d}",
		c.Channel, c.Rank, c.Bank, c.Row, c.Column)
}

// SameRow reports whether two coordinates name the same (rank, bank, row) —
// the granularity the scheduler's row-buffer matching cares about.
func (c Coordinates) SameRow(o Coordinates) bool {
	return c.Rank == o.Rank && c.Bank == o.Bank && c.Row == o.Row
}

// NewMapping builds a Mapping from widths alone, assigning offsets by the
// recognized low→high order (line, channel, column, bank, rank, row) so
// fields are contiguous and non-overlapping by construction.
func NewMapping(lineBits, channelBits, columnBits, bankBits, rankBits, rowBits uint8) Mapping {
	var off uint8
	line := Field{Width: lineBits, Offset: off}
	off += lineBits
	channel := Field{Width: channelBits, Offset: off}
	off += channelBits
	column := Field{Width: columnBits, Offset: off}
	off += columnBits
	bank := Field{Width: bankBits, Offset: off}
	off += bankBits
	rank := Field{Width: rankBits, Offset: off}
	off += rankBits
	row := Field{Width: rowBits, Offset: off}

	return Mapping{
		Line:    line,
		Channel: channel,
		Column:  column,
		Bank:    bank,
		Rank:    rank,
		Row:     row,
	}
}

// Decode applies the mapping once to fill Coordinates from a physical
// address.
func (m Mapping) Decode(address uint64) Coordinates {
	return Coordinates{
		Channel: uint8(m.Channel.Value(address)),
		Rank:    uint8(m.Rank.Value(address)),
		Bank:    uint8(m.Bank.Value(address)),
		Row:     uint32(m.Row.Value(address)),
		Column:  uint32(m.Column.Value(address)),
	}
}
