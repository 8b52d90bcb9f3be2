package container

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/klauspost/compress/zlib"
)

// DecodeHeader parses the fixed header and rejects unknown magic, format
// versions, header sizes and compression ids. It does not check
// crc32_header_meta, which needs the metadata bytes.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, corruptf("too small (%d bytes)", len(buf))
	}
	if string(buf[:8]) != Magic {
		return Header{}, corruptf("bad magic %q", buf[:8])
	}
	le := binary.LittleEndian
	if v := le.Uint32(buf[offVersion:]); v != FormatVersion {
		return Header{}, corruptf("unsupported format version %d", v)
	}
	if hs := le.Uint32(buf[offHeaderSize:]); hs != HeaderSize {
		return Header{}, corruptf("unsupported header size %d", hs)
	}
	flags := le.Uint32(buf[offFlags:])
	compression := Compression(flags & compressionMask)
	if compression != CompressionNone && compression != CompressionZlib {
		return Header{}, corruptf("unsupported compression id %d", compression)
	}

	return Header{
		Version: SemVer{
			Major: le.Uint16(buf[offDictMajor:]),
			Minor: le.Uint16(buf[offDictMinor:]),
			Patch: le.Uint16(buf[offDictPatch:]),
		},
		Profile: Profile{
			LanguageCode: le.Uint16(buf[offLanguageCode:]),
			RegionCode:   buf[offRegionCode],
			ScriptType:   ScriptType(buf[offScriptType]),
			FeatureFlags: FeatureFlags(le.Uint32(buf[offFeatureFlags:])),
		},
		Compression:             compression,
		MetaSize:                le.Uint32(buf[offMetaSize:]),
		PayloadSizeUncompressed: le.Uint32(buf[offPayloadSize:]),
		PayloadSizeStored:       le.Uint32(buf[offPayloadStored:]),
		CRC32Payload:            le.Uint32(buf[offCRCPayload:]),
		CRC32HeaderMeta:         le.Uint32(buf[offCRCHeaderMeta:]),
	}, nil
}

// verifyHeaderMeta checks crc32_header_meta and then decodes the metadata.
func verifyHeaderMeta(h Header, header, meta []byte) (Meta, error) {
	if got := headerMetaCRC(header, meta); got != h.CRC32HeaderMeta {
		return Meta{}, corruptf("header/meta CRC32 mismatch (expected=%08x actual=%08x)", h.CRC32HeaderMeta, got)
	}
	var m Meta
	if err := json.Unmarshal(meta, &m); err != nil {
		return Meta{}, corruptf("metadata JSON: %v", err)
	}
	return m, nil
}

// Decode verifies and unpacks a whole container held in memory. The header and
// metadata checksum is verified before the payload is decompressed.
func Decode(buf []byte) (*Decoded, error) {
	h, err := DecodeHeader(buf)
	if err != nil {
		return nil, err
	}
	metaEnd := uint64(HeaderSize) + uint64(h.MetaSize)
	if metaEnd > uint64(len(buf)) {
		return nil, corruptf("meta out of range (end=%d size=%d)", metaEnd, len(buf))
	}
	meta, err := verifyHeaderMeta(h, buf[:HeaderSize], buf[HeaderSize:metaEnd])
	if err != nil {
		return nil, err
	}

	payloadEnd := metaEnd + uint64(h.PayloadSizeStored)
	if payloadEnd != uint64(len(buf)) {
		return nil, corruptf("payload size mismatch (end=%d size=%d)", payloadEnd, len(buf))
	}
	payload, err := unpack(h, buf[metaEnd:payloadEnd])
	if err != nil {
		return nil, err
	}
	return &Decoded{Header: h, Meta: meta, Payload: payload}, nil
}

// ReadFile reads and decodes a container file.
func ReadFile(path string) (*Decoded, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(buf)
}

// ReadHeaderAndMeta reads only the header and metadata of a container file and
// verifies their checksum, leaving the payload untouched.
func ReadHeaderAndMeta(path string) (Header, Meta, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, Meta{}, err
	}
	defer f.Close()

	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return Header{}, Meta{}, truncated(err, "header")
	}
	h, err := DecodeHeader(header)
	if err != nil {
		return Header{}, Meta{}, err
	}
	fi, err := f.Stat()
	if err != nil {
		return Header{}, Meta{}, err
	}
	if uint64(h.MetaSize) > uint64(fi.Size())-HeaderSize {
		return Header{}, Meta{}, corruptf("truncated meta (meta_size=%d, file=%d bytes)", h.MetaSize, fi.Size())
	}
	meta := make([]byte, h.MetaSize)
	if _, err := io.ReadFull(f, meta); err != nil {
		return Header{}, Meta{}, truncated(err, "meta")
	}
	m, err := verifyHeaderMeta(h, header, meta)
	if err != nil {
		return Header{}, Meta{}, err
	}
	return h, m, nil
}

func truncated(err error, section string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return corruptf("truncated %s", section)
	}
	return err
}

func unpack(h Header, stored []byte) ([]byte, error) {
	var payload []byte
	switch h.Compression {
	case CompressionNone:
		payload = stored
	case CompressionZlib:
		var err error
		if payload, err = decompress(stored, h.PayloadSizeUncompressed); err != nil {
			return nil, err
		}
	}
	if uint64(len(payload)) != uint64(h.PayloadSizeUncompressed) {
		return nil, corruptf("payload size mismatch (expected=%d actual=%d)", h.PayloadSizeUncompressed, len(payload))
	}
	if got := ComputeCRC(payload); got != h.CRC32Payload {
		return nil, corruptf("payload CRC32 mismatch (expected=%08x actual=%08x)", h.CRC32Payload, got)
	}
	return payload, nil
}

// decompress inflates exactly expected bytes and rejects streams that are
// shorter, longer or malformed.
func decompress(stored []byte, expected uint32) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(stored))
	if err != nil {
		return nil, corruptf("zlib header: %v", err)
	}
	defer zr.Close()

	// Grow with the stream rather than trusting expected for the allocation.
	out, err := io.ReadAll(io.LimitReader(zr, int64(expected)+1))
	if err != nil {
		return nil, corruptf("zlib stream: %v", err)
	}
	switch {
	case len(out) > int(expected):
		return nil, corruptf("zlib stream longer than %d bytes", expected)
	case len(out) < int(expected):
		return nil, corruptf("zlib stream: %v", io.ErrUnexpectedEOF)
	}
	return out, nil
}
