//go:build linux

package backup

import (
	"context"

	"golang.org/x/sys/unix"

	"github.com/shmvault/shmvault/pkg/errors"
)

type unixAttacher struct{}

func newUnixAttacher() attacher { return unixAttacher{} }

func (unixAttacher) AttachReadOnly(ctx context.Context, shmid int) ([]byte, error) {
	data, err := unix.SysvShmAttach(shmid, 0, unix.SHM_RDONLY)
	if err != nil {
		return nil, errors.NewIpcError(err, errors.ErrorCodeShmAt, "shmat(SHM_RDONLY) failed").
			WithShmid(shmid).WithOp("shmat")
	}
	return data, nil
}

func (unixAttacher) Detach(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := unix.SysvShmDetach(data); err != nil {
		return errors.NewIpcError(err, errors.ErrorCodeShmDt, "shmdt failed").WithOp("shmdt")
	}
	return nil
}
