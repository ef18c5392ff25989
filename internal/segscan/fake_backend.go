package segscan

import (
	"context"
	"sync"

	"github.com/shmvault/shmvault/pkg/errors"
)

func errNoSuchSegment(shmid int) error {
	return errors.NewIpcError(nil, errors.ErrorCodeShmAt, "no segment with this id").WithShmid(shmid).WithOp("shmat")
}

// FakeSegment seeds a fakeBackend's in-memory segment table for tests.
type FakeSegment struct {
	ShmID  int
	Key    uint32
	Uid    uint32
	Gid    uint32
	Mode   uint32
	Nattch uint64
	Body   []byte
}

// fakeBackend is an in-memory ipcBackend for tests that cannot assume a
// live kernel IPC namespace or root privileges.
type fakeBackend struct {
	mu       sync.Mutex
	bySlot   []*FakeSegment // nil entries model gaps left by destroyed segments
	attached map[int]int    // shmid -> outstanding attach count
}

// NewFakeBackend builds a fakeBackend preloaded with segs at successive
// kernel table slots.
func NewFakeBackend(segs ...FakeSegment) *fakeBackend {
	fb := &fakeBackend{attached: make(map[int]int)}
	for i := range segs {
		s := segs[i]
		fb.bySlot = append(fb.bySlot, &s)
	}
	return fb
}

func (fb *fakeBackend) MaxIndex(ctx context.Context) (int, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.bySlot) - 1, nil
}

func (fb *fakeBackend) Stat(ctx context.Context, index int) (descriptor, bool, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if index < 0 || index >= len(fb.bySlot) || fb.bySlot[index] == nil {
		return descriptor{}, false, nil
	}
	s := fb.bySlot[index]
	return descriptor{
		ShmID:  s.ShmID,
		Key:    s.Key,
		Uid:    s.Uid,
		Gid:    s.Gid,
		Mode:   s.Mode,
		Nattch: s.Nattch,
		Size:   int64(len(s.Body)),
	}, true, nil
}

func (fb *fakeBackend) AttachReadOnly(ctx context.Context, shmid int) ([]byte, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	for _, s := range fb.bySlot {
		if s != nil && s.ShmID == shmid {
			fb.attached[shmid]++
			out := make([]byte, len(s.Body))
			copy(out, s.Body)
			return out, nil
		}
	}
	return nil, errNoSuchSegment(shmid)
}

func (fb *fakeBackend) Detach(ctx context.Context, data []byte) error {
	// Detach releases nothing and leaves every segment's attach count
	// unchanged: it is a no-op success. Tests that need to assert on
	// balanced attach/detach pairs track shmid separately.
	return nil
}

// Remove deletes the segment at shmid, leaving a gap in the table (models
// shmctl(IPC_RMID)/restore-time destruction for conflict tests).
func (fb *fakeBackend) Remove(shmid int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	for i, s := range fb.bySlot {
		if s != nil && s.ShmID == shmid {
			fb.bySlot[i] = nil
			return
		}
	}
}
