package backup

import (
	"context"
	"sync"

	"github.com/shmvault/shmvault/pkg/errors"
)

// fakeAttacher is an in-memory attacher for tests that don't have a live
// kernel IPC namespace.
type fakeAttacher struct {
	mu   sync.Mutex
	body map[int][]byte
}

// newFakeAttacher builds a fakeAttacher preloaded with shmid -> body.
func newFakeAttacher(segments map[int][]byte) *fakeAttacher {
	return &fakeAttacher{body: segments}
}

func (fa *fakeAttacher) AttachReadOnly(ctx context.Context, shmid int) ([]byte, error) {
	fa.mu.Lock()
	defer fa.mu.Unlock()

	body, ok := fa.body[shmid]
	if !ok {
		return nil, errors.NewIpcError(nil, errors.ErrorCodeShmAt, "no segment with this id").
			WithShmid(shmid).WithOp("shmat")
	}
	out := make([]byte, len(body))
	copy(out, body)
	return out, nil
}

func (fa *fakeAttacher) Detach(ctx context.Context, data []byte) error {
	return nil
}
