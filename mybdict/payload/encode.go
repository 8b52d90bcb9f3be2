package payload

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/ZanzyTHEbar/mybdict/mybdict/types"
)

// Encode groups canonical entries by code and serializes them. Entries with an
// empty word or code are ignored. Output depends only on the multiset of
// entries, never on their input order.
func Encode(entries []types.Entry) ([]byte, error) {
	grouped := make(map[string][]types.Entry)
	for _, e := range entries {
		if e.Word == "" || e.Code == "" {
			continue
		}
		grouped[e.Code] = append(grouped[e.Code], e)
	}

	codes := make([]string, 0, len(grouped))
	for code, list := range grouped {
		codes = append(codes, code)
		sortGroup(list)
	}
	sort.Strings(codes)

	codeBlob := make([]byte, 0, len(codes)*8)
	codeOffsets := make([]uint32, len(codes))
	for i, code := range codes {
		codeOffsets[i] = uint32(len(codeBlob))
		codeBlob = append(codeBlob, code...)
		codeBlob = append(codeBlob, 0)
	}

	var entryCount int
	for _, list := range grouped {
		entryCount += len(list)
	}
	wordBlob := make([]byte, 0, entryCount*4)
	wordOffsets := make([]uint32, 0, entryCount)
	weights := make([]int32, 0, entryCount)
	for _, code := range codes {
		for _, e := range grouped[code] {
			wordOffsets = append(wordOffsets, uint32(len(wordBlob)))
			weights = append(weights, e.Weight)
			wordBlob = append(wordBlob, e.Word...)
			wordBlob = append(wordBlob, 0)
		}
	}

	codeIndexOffset := uint64(HeaderSize)
	entryTableOffset := codeIndexOffset + uint64(len(codes))*CodeIndexRecordSize
	codeBlobOffset := entryTableOffset + uint64(entryCount)*EntryRecordSize
	wordBlobOffset := codeBlobOffset + uint64(len(codeBlob))
	size := wordBlobOffset + uint64(len(wordBlob))
	if size > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, size)
	}

	out := make([]byte, 0, size)
	out = append(out, Magic...)
	for _, v := range []uint64{
		uint64(Version),
		0, // flags
		uint64(len(codes)),
		uint64(entryCount),
		codeIndexOffset,
		entryTableOffset,
		codeBlobOffset,
		wordBlobOffset,
		size,
	} {
		out = binary.LittleEndian.AppendUint32(out, uint32(v))
	}

	var first uint32
	for i, code := range codes {
		count := uint32(len(grouped[code]))
		out = binary.LittleEndian.AppendUint32(out, codeOffsets[i])
		out = binary.LittleEndian.AppendUint32(out, first)
		out = binary.LittleEndian.AppendUint32(out, count)
		first += count
	}
	for i := range wordOffsets {
		out = binary.LittleEndian.AppendUint32(out, wordOffsets[i])
		out = binary.LittleEndian.AppendUint32(out, uint32(weights[i]))
	}
	out = append(out, codeBlob...)
	out = append(out, wordBlob...)

	if uint64(len(out)) != size {
		return nil, fmt.Errorf("%w: payload_size header=%d actual=%d", ErrInvariant, size, len(out))
	}
	return out, nil
}

// sortGroup orders one code's entries best completion first.
func sortGroup(list []types.Entry) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Weight != list[j].Weight {
			return list[i].Weight > list[j].Weight
		}
		return list[i].Word < list[j].Word
	})
}
