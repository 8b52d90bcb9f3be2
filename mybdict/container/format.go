// Package container reads and writes the MYBDF001 dictionary file: a fixed
// 64-byte header, a JSON metadata block and the (optionally zlib-compressed)
// payload.
//
// Header (little-endian):
//
//	0   magic[8] = "MYBDF001"
//	8   u32 format_version = 1
//	12  u16 dict_ver_major, u16 dict_ver_minor, u16 dict_ver_patch, u16 reserved
//	20  u16 language_code (two ASCII letters, char0 | char1<<8)
//	22  u8 region_code, u8 script_type
//	24  u32 feature_flags
//	28  u32 flags (low nibble: compression id)
//	32  u32 header_size = 64
//	36  u32 meta_size
//	40  u32 payload_size_uncompressed
//	44  u32 payload_size_stored
//	48  u32 crc32_payload (uncompressed bytes)
//	52  u32 crc32_header_meta (header+meta with this field zeroed)
//	56  reserved[8]
package container

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Magic         = "MYBDF001"
	FormatVersion = uint32(1)
	HeaderSize    = 64

	offVersion         = 8
	offDictMajor       = 12
	offDictMinor       = 14
	offDictPatch       = 16
	offReserved0       = 18
	offLanguageCode    = 20
	offRegionCode      = 22
	offScriptType      = 23
	offFeatureFlags    = 24
	offFlags           = 28
	offHeaderSize      = 32
	offMetaSize        = 36
	offPayloadSize     = 40
	offPayloadStored   = 44
	offCRCPayload      = 48
	offCRCHeaderMeta   = 52
	offReservedTrailer = 56

	compressionMask = 0xF
)

var (
	// ErrCorruptContainer covers bad magic, unsupported versions, CRC mismatches and truncation.
	ErrCorruptContainer = errors.New("corrupt dictionary container")
	// ErrInvalidVersion is returned for a malformed or out-of-range dictionary version.
	ErrInvalidVersion = errors.New("invalid dictionary version")
	// ErrUnknownCompression is returned for a compression name other than none or zlib.
	ErrUnknownCompression = errors.New("unknown compression")
	// ErrInvariant marks a writer bug such as a header of the wrong length.
	ErrInvariant = errors.New("container invariant violation")
)

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptContainer, fmt.Sprintf(format, args...))
}

// Compression identifies how the payload is stored.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionZlib Compression = 1
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZlib:
		return "zlib"
	}
	return fmt.Sprintf("compression(%d)", uint8(c))
}

// ParseCompression maps "none" or "zlib" to its id.
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none":
		return CompressionNone, nil
	case "zlib":
		return CompressionZlib, nil
	}
	return 0, fmt.Errorf("%w: %q (want none or zlib)", ErrUnknownCompression, name)
}

// Meta is the JSON block stored after the header. It is covered by crc32_header_meta.
type Meta struct {
	DictionaryID     string   `json:"dictionaryId"`
	Name             string   `json:"name,omitempty"`
	Languages        []string `json:"languages"`
	SourceFormat     string   `json:"sourceFormat,omitempty"`
	SourceVersion    string   `json:"sourceVersion,omitempty"`
	CodeScheme       string   `json:"codeScheme,omitempty"`
	CreatedBy        string   `json:"createdBy,omitempty"`
	CreatedAtEpochMs int64    `json:"createdAtEpochMs,omitempty"`
}

// Header holds the decoded fixed header.
type Header struct {
	Version                 SemVer
	Profile                 Profile
	Compression             Compression
	MetaSize                uint32
	PayloadSizeUncompressed uint32
	PayloadSizeStored       uint32
	CRC32Payload            uint32
	CRC32HeaderMeta         uint32
}

// Decoded is a fully verified container. Payload is always uncompressed.
type Decoded struct {
	Header  Header
	Meta    Meta
	Payload []byte
}
