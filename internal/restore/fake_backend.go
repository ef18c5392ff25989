package restore

import (
	"context"
	"hash/crc32"
	"sync"

	"github.com/shmvault/shmvault/pkg/errors"
)

// fakeBackend is an in-memory backend for tests that don't have a live
// kernel IPC namespace. Occupancy is tracked by the segment key passed to
// CreateExclusive, matching how a real key_t identifies a segment; bodies,
// owners and attach counts are tracked by the shmid it hands out.
type fakeBackend struct {
	mu           sync.Mutex
	existing     map[uint32]bool
	nextID       int
	segments     map[int][]byte
	owners       map[int][3]uint32 // uid, gid, mode per shmid
	attachCount  map[int]int
	corruptShmid int // if nonzero, the 2nd+ attach of this shmid returns a corrupted copy
}

// newFakeBackend builds a fakeBackend. existing pre-populates keys that
// should be reported as already occupied, so tests can exercise the
// exclusive-create conflict path.
func newFakeBackend(existing map[uint32]bool) *fakeBackend {
	return &fakeBackend{
		existing:    existing,
		segments:    map[int][]byte{},
		owners:      map[int][3]uint32{},
		attachCount: map[int]int{},
	}
}

func (fb *fakeBackend) CreateExclusive(ctx context.Context, key uint32, size int64) (int, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if fb.existing[key] {
		return 0, errors.NewConflictError(errors.ErrorCodeSegmentExists, "destination segment already exists").
			WithKey(key)
	}

	fb.nextID++
	id := fb.nextID
	fb.segments[id] = make([]byte, size)
	fb.existing[key] = true
	return id, nil
}

func (fb *fakeBackend) AttachReadWrite(ctx context.Context, shmid int) ([]byte, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	body, ok := fb.segments[shmid]
	if !ok {
		return nil, errors.NewIpcError(nil, errors.ErrorCodeShmAt, "no segment with this id").
			WithShmid(shmid).WithOp("shmat")
	}

	fb.attachCount[shmid]++
	if fb.corruptShmid == shmid && fb.attachCount[shmid] > 1 {
		corrupted := make([]byte, len(body))
		copy(corrupted, body)
		if len(corrupted) > 0 {
			corrupted[0] ^= 0xFF
		}
		return corrupted, nil
	}
	return body, nil
}

func (fb *fakeBackend) Detach(ctx context.Context, data []byte) error {
	return nil
}

func (fb *fakeBackend) SetOwnership(ctx context.Context, shmid int, uid, gid, mode uint32) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.owners[shmid] = [3]uint32{uid, gid, mode}
	return nil
}

func (fb *fakeBackend) Destroy(ctx context.Context, shmid int) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	delete(fb.segments, shmid)
	return nil
}

// checksum reports the CRC32 currently stored at shmid, for test assertions.
func (fb *fakeBackend) checksum(shmid int) uint32 {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return crc32.ChecksumIEEE(fb.segments[shmid])
}
