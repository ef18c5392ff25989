package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/shmvault/shmvault/internal/segkey"
	"github.com/shmvault/shmvault/pkg/errors"
	"github.com/shmvault/shmvault/pkg/options"
)

// TestScenarioS3RestoreConflictReportedAndNothingCreated restores namespace
// "foo" while a live segment already occupies its Base key: Run must report
// a conflict and the backup directory's files must be left untouched (the
// restore side never even reaches backend.CreateExclusive).
func TestScenarioS3RestoreConflictReportedAndNothingCreated(t *testing.T) {
	dir := t.TempDir()
	namespaceFiles(t, dir, 0, 1, "foo")
	scanner := fakeScanner(t, 0, 1, "foo") // "foo" already live at instance 0, nsid 1

	cfg := Config{
		Options: options.New(
			options.WithRestore(),
			options.WithNames([]string{"foo"}),
			options.WithDirectory(dir),
		),
		Scanner: scanner,
	}

	err := Run(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected a conflict error")
	}

	entries, statErr := os.ReadDir(dir)
	if statErr != nil {
		t.Fatalf("ReadDir: %v", statErr)
	}
	if len(entries) != 3 {
		t.Fatalf("expected the 3 pre-existing backup files to be untouched, found %d entries", len(entries))
	}
}

// TestScenarioS5MissingStageReportedBeforeTouchingIPC deletes one PriStage
// file from the backup directory between backup and restore: grouping must
// fail before driver ever consults the live segment table, so Run doesn't
// need (and isn't given) a Scanner at all.
func TestScenarioS5MissingStageReportedBeforeTouchingIPC(t *testing.T) {
	dir := t.TempDir()
	namespaceFiles(t, dir, 0, 1, "foo")

	pri0Key, _ := segkey.Encode(segkey.KindPriStage, 0, 1, 0x100)
	pri0Path := filepath.Join(dir, fmt.Sprintf("%08x.dat", uint32(pri0Key)))
	if err := os.Remove(pri0Path); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	cfg := Config{
		Options: options.New(
			options.WithRestore(),
			options.WithNames([]string{"foo"}),
			options.WithDirectory(dir),
		),
	}

	err := Run(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected an error for the incomplete unit")
	}
	if errors.GetErrorCode(err) == errors.ErrorCodeSegmentExists {
		t.Fatal("expected a format/grouping failure, not a conflict (no Scanner was configured)")
	}
}
