package container

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/ZanzyTHEbar/mybdict/mybdict/fsutil"

	"github.com/klauspost/compress/zlib"
)

// Options configure one container write.
type Options struct {
	Version     SemVer
	Meta        Meta
	Languages   []string
	Compression Compression
}

// Encoded is a serialized container kept as its three sections so it can be
// streamed to disk without concatenating.
type Encoded struct {
	Header  []byte
	Meta    []byte
	Payload []byte
}

// Bytes concatenates the sections.
func (e *Encoded) Bytes() []byte {
	out := make([]byte, 0, len(e.Header)+len(e.Meta)+len(e.Payload))
	out = append(out, e.Header...)
	out = append(out, e.Meta...)
	return append(out, e.Payload...)
}

// Reader streams header, metadata and payload in file order.
func (e *Encoded) Reader() io.Reader {
	return io.MultiReader(bytes.NewReader(e.Header), bytes.NewReader(e.Meta), bytes.NewReader(e.Payload))
}

// Encode wraps an uncompressed payload. The profile is derived from the first
// language; Languages replaces opts.Meta.Languages.
func Encode(payload []byte, opts Options) (*Encoded, error) {
	stored := payload
	switch opts.Compression {
	case CompressionNone:
	case CompressionZlib:
		var err error
		if stored, err = compress(payload); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: id %d", ErrUnknownCompression, opts.Compression)
	}

	meta := opts.Meta
	meta.Languages = append([]string{}, opts.Languages...)
	metaJSON, err := marshalMeta(meta)
	if err != nil {
		return nil, err
	}

	if uint64(len(payload)) > math.MaxUint32 || uint64(len(stored)) > math.MaxUint32 || uint64(len(metaJSON)) > math.MaxUint32 {
		return nil, fmt.Errorf("container section exceeds 4 GiB")
	}

	var primary string
	if len(opts.Languages) > 0 {
		primary = opts.Languages[0]
	}
	profile := DeriveProfile(primary)

	header := make([]byte, 0, HeaderSize)
	header = append(header, Magic...)
	header = binary.LittleEndian.AppendUint32(header, FormatVersion)
	header = binary.LittleEndian.AppendUint16(header, opts.Version.Major)
	header = binary.LittleEndian.AppendUint16(header, opts.Version.Minor)
	header = binary.LittleEndian.AppendUint16(header, opts.Version.Patch)
	header = binary.LittleEndian.AppendUint16(header, 0) // reserved
	header = binary.LittleEndian.AppendUint16(header, profile.LanguageCode)
	header = append(header, profile.RegionCode, byte(profile.ScriptType))
	header = binary.LittleEndian.AppendUint32(header, uint32(profile.FeatureFlags))
	header = binary.LittleEndian.AppendUint32(header, uint32(opts.Compression)&compressionMask)
	header = binary.LittleEndian.AppendUint32(header, HeaderSize)
	header = binary.LittleEndian.AppendUint32(header, uint32(len(metaJSON)))
	header = binary.LittleEndian.AppendUint32(header, uint32(len(payload)))
	header = binary.LittleEndian.AppendUint32(header, uint32(len(stored)))
	header = binary.LittleEndian.AppendUint32(header, ComputeCRC(payload))
	header = binary.LittleEndian.AppendUint32(header, 0) // crc32_header_meta, patched below
	header = append(header, make([]byte, 8)...)
	if len(header) != HeaderSize {
		return nil, fmt.Errorf("%w: header is %d bytes, want %d", ErrInvariant, len(header), HeaderSize)
	}

	binary.LittleEndian.PutUint32(header[offCRCHeaderMeta:], headerMetaCRC(header, metaJSON))

	return &Encoded{Header: header, Meta: metaJSON, Payload: stored}, nil
}

// WriteFile encodes the container and atomically writes it to path.
func WriteFile(ctx context.Context, path string, payload []byte, opts Options) error {
	enc, err := Encode(payload, opts)
	if err != nil {
		return err
	}
	return fsutil.WriteAtomic(ctx, path, enc.Reader(), nil)
}

// marshalMeta produces compact UTF-8 JSON without HTML escaping.
func marshalMeta(meta Meta) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(meta); err != nil {
		return nil, fmt.Errorf("encode meta: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func compress(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("zlib writer: %w", err)
	}
	if _, err := zw.Write(payload); err != nil {
		return nil, fmt.Errorf("zlib compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zlib compress: %w", err)
	}
	return buf.Bytes(), nil
}
