// Package unit groups segment or file records into namespace units and
// validates their completeness, contiguity, and body contents. The
// grouping algorithm is generic over internal/segscan.Record and
// internal/filescan.Record via the Keyed constraint, so the same code
// groups live segments for backup and on-disk files for restore.
package unit

import (
	"slices"

	"github.com/shmvault/shmvault/internal/segkey"
	"github.com/shmvault/shmvault/pkg/errors"
)

// UnitKind distinguishes a full namespace unit (has a Base) from a
// data-only unit (orphaned DataStage segments sharing a namespace name).
type UnitKind int

const (
	KindFull UnitKind = iota
	KindDataOnly
)

func (k UnitKind) String() string {
	switch k {
	case KindFull:
		return "full"
	case KindDataOnly:
		return "data-only"
	default:
		return "unknown"
	}
}

const (
	minBaseVersion  int32 = 10
	maxBaseVersion  int32 = 12
	minBaseBodySize int64 = 2156
)

// Keyed is satisfied by segscan.Record and filescan.Record, letting Group
// run identically over live segments and on-disk files.
type Keyed interface {
	// Ident reports the fields the grouper partitions and associates by.
	Ident() (kind segkey.Kind, instance, nsid uint8, stage uint16, name string)
	// Body reports the Base/Meta body fields the validator sanity-checks.
	// Fields not applicable to a given kind are zero.
	Body() (version, shutdown, primaryArenaCount, secondaryArenaCount int32)
	// BodySize reports the record's logical segment size.
	BodySize() int64
}

// Unit is one logically complete (instance, nsid) grouping: a full
// namespace (Base, Treex, PriStage run, optional Meta+SecStage run, and
// any DataStage segments sharing the Base's name) or a data-only unit
// (DataStage segments sharing a name, with no Base).
type Unit[T Keyed] struct {
	Kind       UnitKind
	Instance   uint8
	Nsid       uint8
	Name       string
	Base       *T
	Treex      *T
	PriStages  []T // sorted ascending by stage
	Meta       *T
	SecStages  []T // sorted ascending by stage
	DataStages []T
}

type bucketKey struct {
	instance uint8
	nsid     uint8
}

// Group partitions records into namespace units and validates each one.
// DataStage records are associated with a full unit by namespace-name
// match against that unit's Base, independent of the DataStage key's own
// nsid field; any left unmatched form data-only units keyed by their own
// (instance, nsid).
func Group[T Keyed](records []T) ([]Unit[T], error) {
	buckets := map[bucketKey]*Unit[T]{}
	var order []bucketKey
	var dataStages []T

	for _, rec := range records {
		kind, instance, nsid, _, name := rec.Ident()
		if kind == segkey.KindDataStage {
			dataStages = append(dataStages, rec)
			continue
		}

		bk := bucketKey{instance, nsid}
		u, ok := buckets[bk]
		if !ok {
			u = &Unit[T]{Instance: instance, Nsid: nsid}
			buckets[bk] = u
			order = append(order, bk)
		}

		switch kind {
		case segkey.KindBase:
			if u.Base != nil {
				return nil, duplicateErr(instance, nsid, kind)
			}
			r := rec
			u.Base = &r
			u.Name = name
		case segkey.KindTreex:
			if u.Treex != nil {
				return nil, duplicateErr(instance, nsid, kind)
			}
			r := rec
			u.Treex = &r
		case segkey.KindMeta:
			if u.Meta != nil {
				return nil, duplicateErr(instance, nsid, kind)
			}
			r := rec
			u.Meta = &r
		case segkey.KindPriStage:
			u.PriStages = append(u.PriStages, rec)
		case segkey.KindSecStage:
			u.SecStages = append(u.SecStages, rec)
		}
	}

	for _, rec := range dataStages {
		_, instance, nsid, _, name := rec.Ident()

		if target := findByName(buckets, order, instance, name); target != nil {
			target.DataStages = append(target.DataStages, rec)
			continue
		}

		bk := bucketKey{instance, nsid}
		u, ok := buckets[bk]
		if !ok {
			u = &Unit[T]{Instance: instance, Nsid: nsid, Name: name}
			buckets[bk] = u
			order = append(order, bk)
		}
		if u.Name == "" {
			u.Name = name
		}
		u.DataStages = append(u.DataStages, rec)
	}

	units := make([]Unit[T], 0, len(order))
	for _, bk := range order {
		u := buckets[bk]
		if err := finalize(u); err != nil {
			return nil, err
		}
		units = append(units, *u)
	}
	return units, nil
}

// findByName returns the full unit (one with a Base) for instance whose
// namespace name equals name, or nil.
func findByName[T Keyed](buckets map[bucketKey]*Unit[T], order []bucketKey, instance uint8, name string) *Unit[T] {
	for _, bk := range order {
		u := buckets[bk]
		if u.Base != nil && u.Instance == instance && u.Name == name {
			return u
		}
	}
	return nil
}

func finalize[T Keyed](u *Unit[T]) error {
	switch {
	case u.Base != nil:
		u.Kind = KindFull
		return finalizeFull(u)
	case len(u.DataStages) > 0:
		u.Kind = KindDataOnly
		if u.Treex != nil || u.Meta != nil || len(u.PriStages) > 0 || len(u.SecStages) > 0 {
			return incompleteErr(u.Instance, u.Nsid, "data-only unit cannot contain index segments")
		}
		return nil
	default:
		return incompleteErr(u.Instance, u.Nsid, "unit has no Base and no DataStage segments")
	}
}

func finalizeFull[T Keyed](u *Unit[T]) error {
	if u.Treex == nil {
		return incompleteErr(u.Instance, u.Nsid, "full unit missing Treex segment")
	}
	if len(u.PriStages) == 0 {
		return incompleteErr(u.Instance, u.Nsid, "full unit has no PriStage segments")
	}

	sorted, err := sortContiguous(u.PriStages, "PriStage", u.Instance, u.Nsid)
	if err != nil {
		return err
	}
	u.PriStages = sorted

	switch {
	case u.Meta != nil && len(u.SecStages) == 0:
		return incompleteErr(u.Instance, u.Nsid, "Meta present with no SecStage segments")
	case u.Meta == nil && len(u.SecStages) > 0:
		return incompleteErr(u.Instance, u.Nsid, "SecStage segments present without Meta")
	case u.Meta != nil:
		sortedSec, err := sortContiguous(u.SecStages, "SecStage", u.Instance, u.Nsid)
		if err != nil {
			return err
		}
		u.SecStages = sortedSec
	}

	return checkBaseBody(u)
}

// sortContiguous sorts stages ascending and verifies they form the
// contiguous range [0x100, 0x100+len(stages)).
func sortContiguous[T Keyed](stages []T, label string, instance, nsid uint8) ([]T, error) {
	sorted := append([]T(nil), stages...)
	slices.SortFunc(sorted, func(a, b T) int {
		_, _, _, sa, _ := a.Ident()
		_, _, _, sb, _ := b.Ident()
		return int(sa) - int(sb)
	})

	for i, rec := range sorted {
		_, _, _, stage, _ := rec.Ident()
		want := segkey.MinStage + uint16(i)
		if stage != want {
			return nil, errors.NewFormatError(nil, errors.ErrorCodeDiscontiguous, label+" stage numbers are not contiguous from 0x100").
				WithField(label).WithProvided(stage).WithExpected(want).
				WithDetail("instance", instance).WithDetail("nsid", nsid)
		}
	}
	return sorted, nil
}

func checkBaseBody[T Keyed](u *Unit[T]) error {
	if size := (*u.Base).BodySize(); size < minBaseBodySize {
		return errors.NewFormatError(nil, errors.ErrorCodeInvalidHeader, "base segment body is smaller than the minimum layout size").
			WithField("size").WithProvided(size).WithExpected(minBaseBodySize).
			WithDetail("instance", u.Instance).WithDetail("nsid", u.Nsid)
	}

	version, shutdown, primaryArenaCount, _ := (*u.Base).Body()

	if version < minBaseVersion || version > maxBaseVersion {
		return errors.NewFormatError(nil, errors.ErrorCodeBadVersion, "base version is out of the accepted range").
			WithField("version").WithProvided(version).WithExpected([2]int32{minBaseVersion, maxBaseVersion}).
			WithDetail("instance", u.Instance).WithDetail("nsid", u.Nsid)
	}
	if shutdown != 1 {
		return errors.NewFormatError(nil, errors.ErrorCodeNotShutdown, "base shutdown flag is not set").
			WithField("shutdown").WithProvided(shutdown).WithExpected(int32(1)).
			WithDetail("instance", u.Instance).WithDetail("nsid", u.Nsid)
	}
	if int(primaryArenaCount) != len(u.PriStages) {
		return errors.NewFormatError(nil, errors.ErrorCodeArenaCountMismatch, "primary arena count does not match the PriStage segment count").
			WithField("primary_arena_count").WithProvided(primaryArenaCount).WithExpected(len(u.PriStages)).
			WithDetail("instance", u.Instance).WithDetail("nsid", u.Nsid)
	}

	if u.Meta != nil {
		_, _, _, secondaryArenaCount := (*u.Meta).Body()
		if int(secondaryArenaCount) != len(u.SecStages) {
			return errors.NewFormatError(nil, errors.ErrorCodeArenaCountMismatch, "secondary arena count does not match the SecStage segment count").
				WithField("secondary_arena_count").WithProvided(secondaryArenaCount).WithExpected(len(u.SecStages)).
				WithDetail("instance", u.Instance).WithDetail("nsid", u.Nsid)
		}
	}

	return nil
}

func duplicateErr(instance, nsid uint8, kind segkey.Kind) error {
	return errors.NewFormatError(nil, errors.ErrorCodeIncompleteUnit, "duplicate "+kind.String()+" segment for namespace").
		WithDetail("instance", instance).WithDetail("nsid", nsid)
}

func incompleteErr(instance, nsid uint8, reason string) error {
	return errors.NewFormatError(nil, errors.ErrorCodeIncompleteUnit, reason).
		WithDetail("instance", instance).WithDetail("nsid", nsid)
}

// CheckConflicts reports a ConflictError for the first unit whose
// (instance, nsid) the destination already has, per exists. Callers pass
// errors.ErrorCodeFileExists for backup (checking the target directory)
// or errors.ErrorCodeSegmentExists for restore (checking the host's IPC
// table).
func CheckConflicts[T Keyed](units []Unit[T], code errors.ErrorCode, msg string, exists func(instance, nsid uint8) (bool, error)) error {
	for _, u := range units {
		ok, err := exists(u.Instance, u.Nsid)
		if err != nil {
			return err
		}
		if ok {
			return errors.NewConflictError(code, msg).
				WithDetail("instance", u.Instance).WithDetail("nsid", u.Nsid)
		}
	}
	return nil
}
