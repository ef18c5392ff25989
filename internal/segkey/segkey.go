// Package segkey encodes and decodes the 32-bit System V shared-memory
// keys a database instance uses to tag its segments. A key is a compact,
// self-describing encoding of segment kind, instance number, namespace id,
// and arena stage — decoding one never requires consulting any other
// source of truth.
package segkey

import (
	"github.com/shmvault/shmvault/pkg/errors"
)

// Kind is the closed set of segment kinds a key can decode to.
type Kind uint8

const (
	// KindBase is the namespace header segment: version, shutdown flag,
	// name, and primary arena count.
	KindBase Kind = iota
	// KindTreex holds the primary-index tree.
	KindTreex
	// KindMeta is the header segment for secondary indexes.
	KindMeta
	// KindPriStage is one of N equally-sized primary-index arena stages.
	KindPriStage
	// KindSecStage is one of N equally-sized secondary-index arena stages.
	KindSecStage
	// KindDataStage is one of N equally-sized data-store arena stages.
	KindDataStage
)

// String renders a Kind for logs and error details.
func (k Kind) String() string {
	switch k {
	case KindBase:
		return "Base"
	case KindTreex:
		return "Treex"
	case KindMeta:
		return "Meta"
	case KindPriStage:
		return "PriStage"
	case KindSecStage:
		return "SecStage"
	case KindDataStage:
		return "DataStage"
	default:
		return "Unknown"
	}
}

// Type tag byte values occupying bits 31..24 of a key.
const (
	tagPrimary   uint32 = 0xAE // Base / Treex / PriStage
	tagSecondary uint32 = 0xA2 // Meta / SecStage
	tagData      uint32 = 0xAD // DataStage
)

// Selector values with fixed meaning, independent of stage number.
const (
	selectorHeader uint32 = 0x000 // Base / Meta / DataStage-at-stage-0
	selectorTreex  uint32 = 0x001 // Treex only, primary family
)

// Field bit widths and shifts.
const (
	tagShift      = 24
	instanceShift = 20
	nsidShift     = 12

	instanceMask = 0xF   // 4 bits
	nsidMask     = 0xFF  // 8 bits
	selectorMask = 0xFFF // 12 bits

	// MinInstance and MaxInstance bound the valid instance range.
	MinInstance uint8 = 0
	MaxInstance uint8 = 15

	// MinNsid and MaxNsid bound the valid namespace-id range.
	MinNsid uint8 = 1
	MaxNsid uint8 = 32

	// MinStage and MaxStage bound the valid arena-stage selector range
	// for PriStage/SecStage keys.
	MinStage uint16 = 0x100
	MaxStage uint16 = 0x8FF
)

// Key is a raw, encoded 32-bit segment key.
type Key uint32

// Record is the decoded form of a Key.
type Record struct {
	Kind     Kind
	Instance uint8
	Nsid     uint8
	// Stage is meaningful for PriStage, SecStage, and DataStage; it is
	// always 0 for Base, Treex, and Meta.
	Stage uint16
}

// Encode builds a Key from a decoded record, validating every field. It
// returns a *errors.FormatError on any out-of-range value.
func Encode(kind Kind, inst, nsid uint8, stage uint16) (Key, error) {
	if inst < MinInstance || inst > MaxInstance {
		return 0, errors.NewFormatError(nil, errors.ErrorCodeInvalidKey, "instance out of range").
			WithField("instance").WithProvided(inst).WithExpected([2]uint8{MinInstance, MaxInstance})
	}
	if nsid < MinNsid || nsid > MaxNsid {
		return 0, errors.NewFormatError(nil, errors.ErrorCodeInvalidKey, "nsid out of range").
			WithField("nsid").WithProvided(nsid).WithExpected([2]uint8{MinNsid, MaxNsid})
	}

	var tag, selector uint32
	switch kind {
	case KindBase:
		tag, selector = tagPrimary, selectorHeader
	case KindTreex:
		tag, selector = tagPrimary, selectorTreex
	case KindMeta:
		tag, selector = tagSecondary, selectorHeader
	case KindPriStage:
		if stage < MinStage || stage > MaxStage {
			return 0, errors.NewFormatError(nil, errors.ErrorCodeInvalidKey, "stage out of range for PriStage").
				WithField("stage").WithProvided(stage).WithExpected([2]uint16{MinStage, MaxStage})
		}
		tag, selector = tagPrimary, uint32(stage)
	case KindSecStage:
		if stage < MinStage || stage > MaxStage {
			return 0, errors.NewFormatError(nil, errors.ErrorCodeInvalidKey, "stage out of range for SecStage").
				WithField("stage").WithProvided(stage).WithExpected([2]uint16{MinStage, MaxStage})
		}
		tag, selector = tagSecondary, uint32(stage)
	case KindDataStage:
		tag, selector = tagData, uint32(stage)
	default:
		return 0, errors.NewFormatError(nil, errors.ErrorCodeInvalidKey, "unknown segment kind").
			WithField("kind").WithProvided(kind)
	}

	k := (tag << tagShift) |
		(uint32(inst) << instanceShift) |
		(uint32(nsid) << nsidShift) |
		(selector & selectorMask)
	return Key(k), nil
}

// Decode classifies a raw Key into a Record. It returns a
// *errors.FormatError when the type tag is not one of the three known
// families, when instance or nsid fall outside their valid ranges, or
// when the selector does not correspond to a legal combination for its
// family.
func Decode(key Key) (Record, error) {
	raw := uint32(key)
	tag := raw >> tagShift
	inst := uint8((raw >> instanceShift) & instanceMask)
	nsid := uint8((raw >> nsidShift) & nsidMask)
	selector := raw & selectorMask

	if inst < MinInstance || inst > MaxInstance {
		return Record{}, errors.NewFormatError(nil, errors.ErrorCodeInvalidKey, "decoded instance out of range").
			WithField("instance").WithProvided(inst).WithKey(raw)
	}
	if nsid < MinNsid || nsid > MaxNsid {
		return Record{}, errors.NewFormatError(nil, errors.ErrorCodeInvalidKey, "decoded nsid out of range").
			WithField("nsid").WithProvided(nsid).WithKey(raw)
	}

	switch tag {
	case tagPrimary:
		switch {
		case selector == selectorHeader:
			return Record{Kind: KindBase, Instance: inst, Nsid: nsid}, nil
		case selector == selectorTreex:
			return Record{Kind: KindTreex, Instance: inst, Nsid: nsid}, nil
		case selector >= uint32(MinStage) && selector <= uint32(MaxStage):
			return Record{Kind: KindPriStage, Instance: inst, Nsid: nsid, Stage: uint16(selector)}, nil
		default:
			return Record{}, invalidSelector(raw, selector)
		}
	case tagSecondary:
		switch {
		case selector == selectorHeader:
			return Record{Kind: KindMeta, Instance: inst, Nsid: nsid}, nil
		case selector >= uint32(MinStage) && selector <= uint32(MaxStage):
			return Record{Kind: KindSecStage, Instance: inst, Nsid: nsid, Stage: uint16(selector)}, nil
		default:
			return Record{}, invalidSelector(raw, selector)
		}
	case tagData:
		return Record{Kind: KindDataStage, Instance: inst, Nsid: nsid, Stage: uint16(selector)}, nil
	default:
		return Record{}, errors.NewFormatError(nil, errors.ErrorCodeInvalidKey, "key does not belong to a known type family").
			WithField("tag").WithProvided(tag).WithKey(raw)
	}
}

func invalidSelector(raw, selector uint32) error {
	return errors.NewFormatError(nil, errors.ErrorCodeInvalidKey, "selector is not valid for this type family").
		WithField("selector").WithProvided(selector).WithKey(raw)
}

// IsDatabaseKey reports whether the top byte of key belongs to one of the
// three known type families, without fully decoding it.
func IsDatabaseKey(key Key) bool {
	tag := uint32(key) >> tagShift
	return tag == tagPrimary || tag == tagSecondary || tag == tagData
}
