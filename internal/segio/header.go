// Package segio implements the on-disk transfer codec: raw pwrite/pread
// loops for uncompressed segment files, and a gzip-framed codec for
// compressed ones. Every compressed file begins with a fixed 24-byte
// header recording magic, version, logical segment size, and CRC32.
package segio

import (
	"encoding/binary"

	"github.com/shmvault/shmvault/pkg/errors"
)

// HeaderSize is the fixed, packed size of a compressed-file header.
const HeaderSize = 24

// Magic values for the compressed-file header. MagicCurrent is written by
// this implementation; MagicLegacy is accepted on read for compatibility
// with byte-swapped writers.
const (
	MagicCurrent uint32 = 0x544D5341 // 'ASMT'
	MagicLegacy  uint32 = 0x41534D54 // 'TMSA'
)

// HeaderVersion is the only version this implementation writes or reads.
const HeaderVersion uint32 = 1

// Header is the compressed-file header, bit-exact per the file format's
// authoritative layout: magic (4), version (4), segsz (8), crc32 (8),
// packed with no padding, little-endian.
type Header struct {
	Magic   uint32
	Version uint32
	Segsz   uint64
	Crc32   uint32
}

// Marshal encodes h into a HeaderSize-byte little-endian buffer.
func (h Header) Marshal() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint64(buf[8:16], h.Segsz)
	binary.LittleEndian.PutUint64(buf[16:24], uint64(h.Crc32))
	return buf
}

// UnmarshalHeader decodes a HeaderSize-byte buffer into a Header,
// returning a *errors.FormatError if the buffer is short or the magic is
// unrecognized.
func UnmarshalHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, errors.NewFormatError(nil, errors.ErrorCodeInvalidHeader, "compressed header is truncated").
			WithField("length").WithProvided(len(buf)).WithExpected(HeaderSize)
	}

	h := Header{
		Magic:   binary.LittleEndian.Uint32(buf[0:4]),
		Version: binary.LittleEndian.Uint32(buf[4:8]),
		Segsz:   binary.LittleEndian.Uint64(buf[8:16]),
		Crc32:   uint32(binary.LittleEndian.Uint64(buf[16:24])),
	}

	if h.Magic != MagicCurrent && h.Magic != MagicLegacy {
		return Header{}, errors.NewFormatError(nil, errors.ErrorCodeInvalidHeader, "unrecognized compressed-header magic").
			WithField("magic").WithProvided(h.Magic).WithExpected([2]uint32{MagicCurrent, MagicLegacy})
	}
	if h.Version != HeaderVersion {
		return Header{}, errors.NewFormatError(nil, errors.ErrorCodeBadVersion, "unsupported compressed-header version").
			WithField("version").WithProvided(h.Version).WithExpected(HeaderVersion)
	}

	return h, nil
}
