package unit

import (
	"testing"

	"github.com/shmvault/shmvault/internal/segkey"
	"github.com/shmvault/shmvault/internal/segscan"
	"github.com/shmvault/shmvault/pkg/errors"
)

func baseRec(instance, nsid uint8, name string, primaryArenaCount int32) segscan.Record {
	return segscan.Record{
		Kind: segkey.KindBase, Instance: instance, Nsid: nsid, Name: name,
		Size: 4096, Version: 10, Shutdown: 1, PrimaryArenaCount: primaryArenaCount,
	}
}

func treexRec(instance, nsid uint8) segscan.Record {
	return segscan.Record{Kind: segkey.KindTreex, Instance: instance, Nsid: nsid, Size: 1024}
}

func priRec(instance, nsid uint8, stage uint16) segscan.Record {
	return segscan.Record{Kind: segkey.KindPriStage, Instance: instance, Nsid: nsid, Stage: stage, Size: 65536}
}

func metaRec(instance, nsid uint8, secondaryArenaCount int32) segscan.Record {
	return segscan.Record{Kind: segkey.KindMeta, Instance: instance, Nsid: nsid, Size: 64, SecondaryArenaCount: secondaryArenaCount}
}

func secRec(instance, nsid uint8, stage uint16) segscan.Record {
	return segscan.Record{Kind: segkey.KindSecStage, Instance: instance, Nsid: nsid, Stage: stage, Size: 65536}
}

func dataRec(instance, nsid uint8, stage uint16, name string) segscan.Record {
	return segscan.Record{Kind: segkey.KindDataStage, Instance: instance, Nsid: nsid, Stage: stage, Name: name, Size: 65536}
}

func TestGroupFullUnitContiguous(t *testing.T) {
	recs := []segscan.Record{
		baseRec(0, 1, "foo", 2),
		treexRec(0, 1),
		priRec(0, 1, 0x100),
		priRec(0, 1, 0x101),
	}

	units, err := Group(recs)
	if err != nil {
		t.Fatalf("Group: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("got %d units, want 1", len(units))
	}
	u := units[0]
	if u.Kind != KindFull {
		t.Fatalf("got kind %v, want Full", u.Kind)
	}
	if len(u.PriStages) != 2 {
		t.Fatalf("got %d PriStages, want 2", len(u.PriStages))
	}
	if u.PriStages[0].Stage != 0x100 || u.PriStages[1].Stage != 0x101 {
		t.Fatalf("PriStages not sorted ascending: %+v", u.PriStages)
	}
}

func TestGroupMissingStageFails(t *testing.T) {
	recs := []segscan.Record{
		baseRec(0, 1, "foo", 2),
		treexRec(0, 1),
		priRec(0, 1, 0x100),
		// 0x101 missing; arena count claims 2.
	}

	_, err := Group(recs)
	if err == nil {
		t.Fatal("expected an error for a mismatched arena count, got nil")
	}
	if !errors.IsFormatError(err) {
		t.Fatalf("got %T, want *errors.FormatError", err)
	}
}

func TestGroupDiscontiguousStagesFails(t *testing.T) {
	recs := []segscan.Record{
		baseRec(0, 1, "foo", 2),
		treexRec(0, 1),
		priRec(0, 1, 0x100),
		priRec(0, 1, 0x102), // gap at 0x101
	}

	_, err := Group(recs)
	if err == nil {
		t.Fatal("expected a discontiguity error, got nil")
	}
	fe, ok := err.(*errors.FormatError)
	if !ok {
		t.Fatalf("got %T, want *errors.FormatError", err)
	}
	if fe.Code() != errors.ErrorCodeDiscontiguous {
		t.Fatalf("got code %v, want %v", fe.Code(), errors.ErrorCodeDiscontiguous)
	}
}

func TestGroupWithMetaAndSecStages(t *testing.T) {
	recs := []segscan.Record{
		baseRec(0, 1, "foo", 1),
		treexRec(0, 1),
		priRec(0, 1, 0x100),
		metaRec(0, 1, 2),
		secRec(0, 1, 0x100),
		secRec(0, 1, 0x101),
	}

	units, err := Group(recs)
	if err != nil {
		t.Fatalf("Group: %v", err)
	}
	if len(units) != 1 || len(units[0].SecStages) != 2 {
		t.Fatalf("got %+v, want one unit with 2 SecStages", units)
	}
}

func TestGroupBadVersionFails(t *testing.T) {
	rec := baseRec(0, 1, "foo", 1)
	rec.Version = 99
	recs := []segscan.Record{rec, treexRec(0, 1), priRec(0, 1, 0x100)}

	_, err := Group(recs)
	fe, ok := err.(*errors.FormatError)
	if !ok {
		t.Fatalf("got %T, want *errors.FormatError", err)
	}
	if fe.Code() != errors.ErrorCodeBadVersion {
		t.Fatalf("got code %v, want %v", fe.Code(), errors.ErrorCodeBadVersion)
	}
}

func TestGroupNotShutdownFails(t *testing.T) {
	rec := baseRec(0, 1, "foo", 1)
	rec.Shutdown = 0
	recs := []segscan.Record{rec, treexRec(0, 1), priRec(0, 1, 0x100)}

	_, err := Group(recs)
	fe, ok := err.(*errors.FormatError)
	if !ok {
		t.Fatalf("got %T, want *errors.FormatError", err)
	}
	if fe.Code() != errors.ErrorCodeNotShutdown {
		t.Fatalf("got code %v, want %v", fe.Code(), errors.ErrorCodeNotShutdown)
	}
}

func TestGroupDataStageAttachesByNameNotNsid(t *testing.T) {
	recs := []segscan.Record{
		baseRec(0, 1, "foo", 1),
		treexRec(0, 1),
		priRec(0, 1, 0x100),
		// This DataStage's key encodes nsid 5, but its body name matches
		// the nsid-1 Base, so it must join that full unit.
		dataRec(0, 5, 0x100, "foo"),
	}

	units, err := Group(recs)
	if err != nil {
		t.Fatalf("Group: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("got %d units, want 1 (DataStage should join the full unit by name)", len(units))
	}
	if len(units[0].DataStages) != 1 {
		t.Fatalf("got %d DataStages attached, want 1", len(units[0].DataStages))
	}
}

func TestGroupOrphanedDataStagesFormDataOnlyUnit(t *testing.T) {
	recs := []segscan.Record{
		dataRec(0, 2, 0x000, "bar"),
		dataRec(0, 2, 0x001, "bar"),
	}

	units, err := Group(recs)
	if err != nil {
		t.Fatalf("Group: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("got %d units, want 1", len(units))
	}
	if units[0].Kind != KindDataOnly {
		t.Fatalf("got kind %v, want DataOnly", units[0].Kind)
	}
	if len(units[0].DataStages) != 2 {
		t.Fatalf("got %d DataStages, want 2", len(units[0].DataStages))
	}
}

func TestGroupIncompleteUnitMissingTreex(t *testing.T) {
	recs := []segscan.Record{
		baseRec(0, 1, "foo", 1),
		priRec(0, 1, 0x100),
	}

	_, err := Group(recs)
	fe, ok := err.(*errors.FormatError)
	if !ok {
		t.Fatalf("got %T, want *errors.FormatError", err)
	}
	if fe.Code() != errors.ErrorCodeIncompleteUnit {
		t.Fatalf("got code %v, want %v", fe.Code(), errors.ErrorCodeIncompleteUnit)
	}
}

func TestCheckConflictsDetectsExistingDestination(t *testing.T) {
	units, err := Group([]segscan.Record{
		baseRec(0, 1, "foo", 1), treexRec(0, 1), priRec(0, 1, 0x100),
	})
	if err != nil {
		t.Fatalf("Group: %v", err)
	}

	err = CheckConflicts(units, errors.ErrorCodeSegmentExists, "segment already exists", func(instance, nsid uint8) (bool, error) {
		return instance == 0 && nsid == 1, nil
	})
	if err == nil {
		t.Fatal("expected a conflict error, got nil")
	}
	ce, ok := err.(*errors.ConflictError)
	if !ok {
		t.Fatalf("got %T, want *errors.ConflictError", err)
	}
	if ce.Code() != errors.ErrorCodeSegmentExists {
		t.Fatalf("got code %v, want %v", ce.Code(), errors.ErrorCodeSegmentExists)
	}
}

func TestCheckConflictsNoneWhenDestinationEmpty(t *testing.T) {
	units, err := Group([]segscan.Record{
		baseRec(0, 1, "foo", 1), treexRec(0, 1), priRec(0, 1, 0x100),
	})
	if err != nil {
		t.Fatalf("Group: %v", err)
	}

	err = CheckConflicts(units, errors.ErrorCodeSegmentExists, "segment already exists", func(instance, nsid uint8) (bool, error) {
		return false, nil
	})
	if err != nil {
		t.Fatalf("CheckConflicts: %v", err)
	}
}
