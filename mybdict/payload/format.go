// Package payload encodes and reads the MYBDICT1 code index.
//
// Layout (little-endian):
//
//	magic[8] = "MYBDICT1"
//	u32 version = 1
//	u32 flags = 0
//	u32 code_count
//	u32 entry_count
//	u32 code_index_offset
//	u32 entry_table_offset
//	u32 code_blob_offset
//	u32 word_blob_offset
//	u32 payload_size
//	code_index[code_count]   {u32 code_offset, u32 first_entry_index, u32 entry_count}
//	entry_table[entry_count] {u32 word_offset, i32 weight}
//	code_blob                NUL-terminated UTF-8, one per distinct code
//	word_blob                NUL-terminated UTF-8, one per entry
//
// Codes in the index are sorted by byte order; entries of one code are
// contiguous and sorted by (weight desc, word asc).
package payload

import (
	"errors"
	"fmt"
)

const (
	Magic   = "MYBDICT1"
	Version = uint32(1)

	// HeaderSize is the magic plus nine u32 fields.
	HeaderSize          = 8 + 4*9
	CodeIndexRecordSize = 12
	EntryRecordSize     = 8
)

var (
	// ErrCorruptPayload is returned for any structural problem found while reading.
	ErrCorruptPayload = errors.New("corrupt payload")
	// ErrInvariant marks an encoder bug: the serialized bytes disagree with the computed layout.
	ErrInvariant = errors.New("payload invariant violation")
	// ErrTooLarge is returned when a section does not fit the u32 offsets of the format.
	ErrTooLarge = errors.New("payload exceeds 4 GiB format limit")
)

// Layout holds the decoded header fields.
type Layout struct {
	Version          uint32
	Flags            uint32
	CodeCount        uint32
	EntryCount       uint32
	CodeIndexOffset  uint32
	EntryTableOffset uint32
	CodeBlobOffset   uint32
	WordBlobOffset   uint32
	Size             uint32
}

// Candidate is one decoded entry.
type Candidate struct {
	Code   string
	Word   string
	Weight int32
}

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptPayload, fmt.Sprintf(format, args...))
}
