package container

import (
	"hash/crc32"
)

// crcTable is the IEEE CRC-32 table.
var crcTable = crc32.MakeTable(crc32.IEEE)

// ComputeCRC computes CRC-32 IEEE of the given bytes.
func ComputeCRC(data []byte) uint32 {
	return crc32.Checksum(data, crcTable)
}

// headerMetaCRC checksums header+meta as if the crc32_header_meta slot held zero.
// The input is not modified.
func headerMetaCRC(header, meta []byte) uint32 {
	var zeroed [HeaderSize]byte
	copy(zeroed[:], header)
	clear(zeroed[offCRCHeaderMeta : offCRCHeaderMeta+4])
	crc := crc32.Update(0, crcTable, zeroed[:])
	return crc32.Update(crc, crcTable, meta)
}
