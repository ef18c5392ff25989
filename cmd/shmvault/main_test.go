package main

import "testing"

func TestSplitNamesTrimsAndDropsBlanks(t *testing.T) {
	got := splitNames(" foo ,bar,, baz")
	want := []string{"foo", "bar", "baz"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSplitNamesEmpty(t *testing.T) {
	if got := splitNames("  "); got != nil {
		t.Fatalf("expected nil for blank input, got %v", got)
	}
}

func TestRunHelpExitsZero(t *testing.T) {
	if code := run([]string{"-h"}); code != 0 {
		t.Fatalf("got exit code %d, want 0", code)
	}
}

func TestRunMissingOperationExitsNonzero(t *testing.T) {
	if code := run([]string{"-n", "foo", "-p", t.TempDir()}); code == 0 {
		t.Fatal("expected a nonzero exit code when neither -b nor -r is given")
	}
}

func TestRunMissingNamesExitsNonzero(t *testing.T) {
	if code := run([]string{"-b", "-p", t.TempDir()}); code == 0 {
		t.Fatal("expected a nonzero exit code when -n is missing")
	}
}

func TestRunMissingDirectoryExitsNonzero(t *testing.T) {
	if code := run([]string{"-b", "-n", "foo"}); code == 0 {
		t.Fatal("expected a nonzero exit code when -p is missing")
	}
}

func TestRunUnknownFlagExitsNonzero(t *testing.T) {
	if code := run([]string{"--bogus-flag"}); code == 0 {
		t.Fatal("expected a nonzero exit code for an unrecognized flag")
	}
}
