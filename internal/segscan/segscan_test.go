package segscan

import (
	"context"
	"testing"

	"github.com/shmvault/shmvault/internal/segkey"
)

func baseBody(version, shutdown, primaryCount int32, name string) []byte {
	buf := make([]byte, minBaseBodySize)
	putLE32(buf[0:4], uint32(version))
	putLE32(buf[4:8], uint32(shutdown))
	copy(buf[1024:1056], name)
	putLE32(buf[2152:2156], uint32(primaryCount))
	return buf
}

func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func TestScanFiltersByInstanceAndAttached(t *testing.T) {
	baseKey, _ := segkey.Encode(segkey.KindBase, 0, 1, 0)
	otherInstKey, _ := segkey.Encode(segkey.KindBase, 1, 1, 0)

	backend := NewFakeBackend(
		FakeSegment{ShmID: 1, Key: uint32(baseKey), Body: baseBody(10, 1, 0, "foo")},
		FakeSegment{ShmID: 2, Key: uint32(otherInstKey), Body: baseBody(10, 1, 0, "foo")},
		FakeSegment{ShmID: 3, Key: uint32(baseKey), Nattch: 1, Body: baseBody(10, 1, 0, "foo")},
	)

	s := NewWithBackend(backend)
	recs, err := s.Scan(context.Background(), Options{Instance: 0})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1 (instance filter + attached filter)", len(recs))
	}
	if recs[0].ShmID != 1 {
		t.Fatalf("got shmid %d, want 1", recs[0].ShmID)
	}
	if recs[0].Name != "foo" {
		t.Fatalf("got name %q, want foo", recs[0].Name)
	}
}

func TestScanNameFilterSkipsMismatchedBase(t *testing.T) {
	key1, _ := segkey.Encode(segkey.KindBase, 0, 1, 0)
	key2, _ := segkey.Encode(segkey.KindBase, 0, 2, 0)

	backend := NewFakeBackend(
		FakeSegment{ShmID: 1, Key: uint32(key1), Body: baseBody(10, 1, 0, "foo")},
		FakeSegment{ShmID: 2, Key: uint32(key2), Body: baseBody(10, 1, 0, "bar")},
	)

	s := NewWithBackend(backend)
	recs, err := s.Scan(context.Background(), Options{Instance: 0, NameFilter: "bar"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(recs) != 1 || recs[0].Name != "bar" {
		t.Fatalf("got %+v, want exactly the 'bar' base", recs)
	}
}

func TestScanComputesCRC(t *testing.T) {
	key, _ := segkey.Encode(segkey.KindPriStage, 0, 1, 0x100)
	body := []byte("some segment payload bytes")

	backend := NewFakeBackend(FakeSegment{ShmID: 1, Key: uint32(key), Body: body})
	s := NewWithBackend(backend)

	recs, err := s.Scan(context.Background(), Options{Instance: 0, ComputeCRC: true})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(recs) != 1 || !recs[0].HasCRC32 {
		t.Fatalf("expected one record with CRC32 computed, got %+v", recs)
	}
}

func TestScanSkipsNonDatabaseKeys(t *testing.T) {
	backend := NewFakeBackend(FakeSegment{ShmID: 1, Key: 0xFF001000})
	s := NewWithBackend(backend)

	recs, err := s.Scan(context.Background(), Options{Instance: 0})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected non-database keys to be skipped, got %+v", recs)
	}
}
