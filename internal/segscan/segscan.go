// Package segscan walks the host's System V shared-memory segment table,
// decodes each database segment's key, and optionally attaches to read a
// namespace name or compute a CRC32 — behind an ipcBackend interface so
// tests don't need a live kernel IPC namespace.
package segscan

import (
	"context"
	"encoding/binary"
	"hash/crc32"

	"github.com/shmvault/shmvault/internal/segkey"
	"github.com/shmvault/shmvault/pkg/errors"
)

// Known body offsets, per the Base/Meta/DataStage layout.
const (
	offsetBaseVersion             = 0
	offsetBaseShutdown            = 4
	offsetBaseName                = 1024
	offsetBasePrimaryArenaCount   = 2152
	offsetMetaSecondaryArenaCount = 20
	offsetDataStageName           = 12
	nameFieldSize                 = 32
	minBaseBodySize               = 2156
)

// Record is the enumerator's output for one live segment.
type Record struct {
	Key      uint32
	ShmID    int
	Uid      uint32
	Gid      uint32
	Mode     uint32
	Nattch   uint64
	Size     int64
	Kind     segkey.Kind
	Instance uint8
	Nsid     uint8
	Stage    uint16
	Name     string // populated for Base and DataStage
	CRC32    uint32 // populated when ComputeCRC is requested
	HasCRC32 bool

	// Version, Shutdown, and PrimaryArenaCount are populated for Base
	// segments only. SecondaryArenaCount is populated for Meta segments
	// only.
	Version             int32
	Shutdown            int32
	PrimaryArenaCount   int32
	SecondaryArenaCount int32
}

// Ident satisfies internal/unit's Keyed constraint.
func (r Record) Ident() (kind segkey.Kind, instance, nsid uint8, stage uint16, name string) {
	return r.Kind, r.Instance, r.Nsid, r.Stage, r.Name
}

// Body satisfies internal/unit's Keyed constraint.
func (r Record) Body() (version, shutdown, primaryArenaCount, secondaryArenaCount int32) {
	return r.Version, r.Shutdown, r.PrimaryArenaCount, r.SecondaryArenaCount
}

// BodySize satisfies internal/unit's Keyed constraint.
func (r Record) BodySize() int64 { return r.Size }

// Scanner enumerates live segments via an ipcBackend.
type Scanner struct {
	backend ipcBackend
}

// New builds a production Scanner backed by the host's real System V IPC
// syscalls.
func New() *Scanner {
	return &Scanner{backend: newUnixBackend()}
}

// NewWithBackend builds a Scanner over an arbitrary ipcBackend, for tests.
func NewWithBackend(b ipcBackend) *Scanner {
	return &Scanner{backend: b}
}

// Options controls which segments Scan returns and what per-segment work
// it performs.
type Options struct {
	// Instance filters to one database instance; segments decoding to a
	// different instance are skipped.
	Instance uint8
	// NameFilter, if non-empty, skips Base segments whose body-embedded
	// namespace name does not match.
	NameFilter string
	// ComputeCRC, when true, attaches every matched segment read-only (an
	// attach separate from any name read) and computes its CRC32 over the
	// full body.
	ComputeCRC bool
}

// Scan iterates every occupied slot in the host's segment table,
// decoding and filtering matches per opts. Attached (in-use) segments are
// always skipped, matching spec's "no live migration" non-goal.
func (s *Scanner) Scan(ctx context.Context, opts Options) ([]Record, error) {
	maxIdx, err := s.backend.MaxIndex(ctx)
	if err != nil {
		return nil, err
	}

	var out []Record
	for idx := 0; idx <= maxIdx; idx++ {
		desc, ok, err := s.backend.Stat(ctx, idx)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if !segkey.IsDatabaseKey(segkey.Key(desc.Key)) {
			continue
		}
		if desc.Nattch > 0 {
			continue // attached: skip, no live migration
		}

		rec, err := segkey.Decode(segkey.Key(desc.Key))
		if err != nil {
			continue // not a valid database key after all
		}
		if rec.Instance != opts.Instance {
			continue
		}

		entry := Record{
			Key:      desc.Key,
			ShmID:    desc.ShmID,
			Uid:      desc.Uid,
			Gid:      desc.Gid,
			Mode:     desc.Mode,
			Nattch:   desc.Nattch,
			Size:     desc.Size,
			Kind:     rec.Kind,
			Instance: rec.Instance,
			Nsid:     rec.Nsid,
			Stage:    rec.Stage,
		}

		switch rec.Kind {
		case segkey.KindBase:
			body, err := s.attachAndRead(ctx, desc.ShmID)
			if err != nil {
				return nil, err
			}
			name, err := extractName(body, offsetBaseName)
			if err != nil {
				return nil, err
			}
			entry.Name = name
			if len(body) >= offsetBasePrimaryArenaCount+4 {
				entry.Version = int32(binary.LittleEndian.Uint32(body[offsetBaseVersion : offsetBaseVersion+4]))
				entry.Shutdown = int32(binary.LittleEndian.Uint32(body[offsetBaseShutdown : offsetBaseShutdown+4]))
				entry.PrimaryArenaCount = int32(binary.LittleEndian.Uint32(body[offsetBasePrimaryArenaCount : offsetBasePrimaryArenaCount+4]))
			}

			if opts.NameFilter != "" && name != opts.NameFilter {
				continue
			}

		case segkey.KindDataStage:
			body, err := s.attachAndRead(ctx, desc.ShmID)
			if err != nil {
				return nil, err
			}
			name, err := extractName(body, offsetDataStageName)
			if err != nil {
				return nil, err
			}
			entry.Name = name

		case segkey.KindMeta:
			body, err := s.attachAndRead(ctx, desc.ShmID)
			if err != nil {
				return nil, err
			}
			if len(body) >= offsetMetaSecondaryArenaCount+4 {
				entry.SecondaryArenaCount = int32(binary.LittleEndian.Uint32(body[offsetMetaSecondaryArenaCount : offsetMetaSecondaryArenaCount+4]))
			}
		}

		if opts.ComputeCRC {
			crc, err := s.computeCRC(ctx, desc.ShmID)
			if err != nil {
				return nil, err
			}
			entry.CRC32 = crc
			entry.HasCRC32 = true
		}

		out = append(out, entry)
	}

	return out, nil
}

// attachAndRead attaches shmid read-only, copies its body into an
// independently-owned buffer, and detaches before returning — so callers
// can keep reading the returned slice after the segment is unmapped.
func (s *Scanner) attachAndRead(ctx context.Context, shmid int) ([]byte, error) {
	data, err := s.backend.AttachReadOnly(ctx, shmid)
	if err != nil {
		return nil, err
	}
	defer s.backend.Detach(ctx, data)

	body := make([]byte, len(data))
	copy(body, data)
	return body, nil
}

func (s *Scanner) computeCRC(ctx context.Context, shmid int) (uint32, error) {
	data, err := s.backend.AttachReadOnly(ctx, shmid)
	if err != nil {
		return 0, err
	}
	defer s.backend.Detach(ctx, data)

	return crc32.ChecksumIEEE(data), nil
}

// extractName reads a 32-byte NUL-padded name field at offset and returns
// it with trailing NULs stripped.
func extractName(body []byte, offset int) (string, error) {
	if offset+nameFieldSize > len(body) {
		return "", errors.NewFormatError(nil, errors.ErrorCodeInvalidHeader, "segment body too small to contain a namespace name").
			WithField("name").WithProvided(len(body)).WithExpected(offset + nameFieldSize)
	}
	field := body[offset : offset+nameFieldSize]
	end := len(field)
	for i, b := range field {
		if b == 0 {
			end = i
			break
		}
	}
	return string(field[:end]), nil
}
