package segkey

import (
	"testing"

	shmerrors "github.com/shmvault/shmvault/pkg/errors"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		kind  Kind
		inst  uint8
		nsid  uint8
		stage uint16
	}{
		{"base", KindBase, 0, 1, 0},
		{"base-max-inst", KindBase, 15, 32, 0},
		{"treex", KindTreex, 0, 1, 0},
		{"meta", KindMeta, 3, 7, 0},
		{"pristage-first", KindPriStage, 0, 1, 0x100},
		{"pristage-last", KindPriStage, 0, 1, 0x8FF},
		{"secstage", KindSecStage, 2, 5, 0x101},
		{"datastage-zero", KindDataStage, 0, 2, 0},
		{"datastage-stage", KindDataStage, 0, 2, 0x100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, err := Encode(tc.kind, tc.inst, tc.nsid, tc.stage)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}

			rec, err := Decode(key)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}

			want := Record{Kind: tc.kind, Instance: tc.inst, Nsid: tc.nsid, Stage: tc.stage}
			if rec != want {
				t.Fatalf("round-trip mismatch: got %+v, want %+v", rec, want)
			}
		})
	}
}

func TestEncodeRejectsOutOfRange(t *testing.T) {
	if _, err := Encode(KindBase, 16, 1, 0); err == nil {
		t.Fatal("expected error for instance > 15")
	}
	if _, err := Encode(KindBase, 0, 33, 0); err == nil {
		t.Fatal("expected error for nsid > 32")
	}
	if _, err := Encode(KindBase, 0, 0, 0); err == nil {
		t.Fatal("expected error for nsid < 1")
	}
	if _, err := Encode(KindPriStage, 0, 1, 0x0FF); err == nil {
		t.Fatal("expected error for stage below range")
	}
	if _, err := Encode(KindPriStage, 0, 1, 0x900); err == nil {
		t.Fatal("expected error for stage above range")
	}
}

func TestDecodeRejectsUnknownTag(t *testing.T) {
	_, err := Decode(Key(0xFF001000))
	if err == nil {
		t.Fatal("expected error for unknown type tag")
	}
	if !shmerrors.IsFormatError(err) {
		t.Fatalf("expected a FormatError, got %T", err)
	}
}

func TestDecodeRejectsInvalidSelector(t *testing.T) {
	// Primary family, selector 0x002 is neither header, treex, nor a
	// valid stage number.
	_, err := Decode(Key(0xAE001002))
	if err == nil {
		t.Fatal("expected error for invalid selector")
	}
}

func TestIsDatabaseKey(t *testing.T) {
	key, _ := Encode(KindBase, 0, 1, 0)
	if !IsDatabaseKey(key) {
		t.Fatal("expected a valid key to be recognized as a database key")
	}
	if IsDatabaseKey(Key(0x00000000)) {
		t.Fatal("expected the zero key to not be a database key")
	}
}

func TestKindString(t *testing.T) {
	if KindBase.String() != "Base" {
		t.Fatalf("got %q", KindBase.String())
	}
	if Kind(99).String() != "Unknown" {
		t.Fatalf("got %q", Kind(99).String())
	}
}
