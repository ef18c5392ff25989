package segio

import (
	"bytes"
	"hash/crc32"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{Magic: MagicCurrent, Version: HeaderVersion, Segsz: 65536, Crc32: 0xDEADBEEF}
	buf := h.Marshal()
	if len(buf) != HeaderSize {
		t.Fatalf("marshaled header length = %d, want %d", len(buf), HeaderSize)
	}

	got, err := UnmarshalHeader(buf)
	if err != nil {
		t.Fatalf("UnmarshalHeader: %v", err)
	}
	if got != h {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestUnmarshalHeaderAcceptsLegacyMagic(t *testing.T) {
	h := Header{Magic: MagicLegacy, Version: HeaderVersion, Segsz: 4096}
	if _, err := UnmarshalHeader(h.Marshal()); err != nil {
		t.Fatalf("expected legacy magic to be accepted, got %v", err)
	}
}

func TestUnmarshalHeaderRejectsBadMagic(t *testing.T) {
	h := Header{Magic: 0x12345678, Version: HeaderVersion}
	if _, err := UnmarshalHeader(h.Marshal()); err == nil {
		t.Fatal("expected error for unrecognized magic")
	}
}

func TestUnmarshalHeaderRejectsBadVersion(t *testing.T) {
	h := Header{Magic: MagicCurrent, Version: 2}
	if _, err := UnmarshalHeader(h.Marshal()); err == nil {
		t.Fatal("expected error for unsupported version")
	}
}

func TestRawWriteReadRoundTrip(t *testing.T) {
	data := make([]byte, 1<<20+17)
	rand.New(rand.NewSource(1)).Read(data)

	dir := t.TempDir()
	path := filepath.Join(dir, "seg.dat")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	writeCRC, err := WriteRaw(f, data, path, "seg.dat")
	if err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	f.Close()

	want := crc32.ChecksumIEEE(data)
	if writeCRC != want {
		t.Fatalf("write CRC32 = %#x, want %#x", writeCRC, want)
	}

	rf, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rf.Close()

	dst := make([]byte, len(data))
	readCRC, err := ReadRaw(rf, dst, path, "seg.dat")
	if err != nil {
		t.Fatalf("ReadRaw: %v", err)
	}
	if readCRC != want {
		t.Fatalf("read CRC32 = %#x, want %#x", readCRC, want)
	}
	if !bytes.Equal(dst, data) {
		t.Fatal("round-tripped bytes differ from original")
	}
}

func TestGzipWriteReadRoundTrip(t *testing.T) {
	data := make([]byte, 3*chunkSize+123)
	rand.New(rand.NewSource(2)).Read(data)

	dir := t.TempDir()
	path := filepath.Join(dir, "seg.dat.gz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	writeCRC, err := WriteGzip(f, data, path, "seg.dat.gz")
	if err != nil {
		t.Fatalf("WriteGzip: %v", err)
	}
	f.Close()

	want := crc32.ChecksumIEEE(data)
	if writeCRC != want {
		t.Fatalf("write CRC32 = %#x, want %#x", writeCRC, want)
	}

	rf, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rf.Close()

	dst := make([]byte, len(data))
	readCRC, err := ReadGzip(rf, dst, path, "seg.dat.gz")
	if err != nil {
		t.Fatalf("ReadGzip: %v", err)
	}
	if readCRC != want {
		t.Fatalf("read CRC32 = %#x, want %#x", readCRC, want)
	}
	if !bytes.Equal(dst, data) {
		t.Fatal("round-tripped bytes differ from original")
	}
}

func TestGzipReadRejectsCorruptedTrailer(t *testing.T) {
	data := make([]byte, chunkSize+17)
	rand.New(rand.NewSource(3)).Read(data)

	dir := t.TempDir()
	path := filepath.Join(dir, "seg.dat.gz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := WriteGzip(f, data, path, "seg.dat.gz"); err != nil {
		t.Fatalf("WriteGzip: %v", err)
	}
	f.Close()

	// Flip the deflate stream's final byte: the gzip trailer's CRC32/ISIZE,
	// which the reader only validates on the read past the last payload byte.
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	rwf, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	buf := make([]byte, 1)
	if _, err := rwf.ReadAt(buf, fi.Size()-1); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	buf[0] ^= 0xFF
	if _, err := rwf.WriteAt(buf, fi.Size()-1); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	rwf.Close()

	rf, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rf.Close()

	dst := make([]byte, len(data))
	if _, err := ReadGzip(rf, dst, path, "seg.dat.gz"); err == nil {
		t.Fatal("expected an error for a corrupted gzip trailer")
	}
}

func TestGzipReadRejectsSegszMismatch(t *testing.T) {
	data := []byte("hello world")
	dir := t.TempDir()
	path := filepath.Join(dir, "seg.dat.gz")

	f, _ := os.Create(path)
	if _, err := WriteGzip(f, data, path, "seg.dat.gz"); err != nil {
		t.Fatalf("WriteGzip: %v", err)
	}
	f.Close()

	rf, _ := os.Open(path)
	defer rf.Close()

	dst := make([]byte, len(data)+1)
	if _, err := ReadGzip(rf, dst, path, "seg.dat.gz"); err == nil {
		t.Fatal("expected error for segsz/len(dst) mismatch")
	}
}
