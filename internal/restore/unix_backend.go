//go:build linux

package restore

import (
	"context"
	"os"

	"golang.org/x/sys/unix"

	"github.com/shmvault/shmvault/pkg/errors"
)

type unixBackend struct{}

func newUnixBackend() backend { return unixBackend{} }

func (unixBackend) CreateExclusive(ctx context.Context, key uint32, size int64) (int, error) {
	shmid, err := unix.SysvShmGet(int(key), int(size), unix.IPC_CREAT|unix.IPC_EXCL|0600)
	if err != nil {
		if os.IsExist(err) {
			return 0, errors.NewConflictError(errors.ErrorCodeSegmentExists, "destination segment already exists").
				WithKey(key)
		}
		return 0, errors.NewIpcError(err, errors.ErrorCodeShmGet, "shmget(IPC_CREAT|IPC_EXCL) failed").
			WithKey(key).WithOp("shmget")
	}
	return shmid, nil
}

func (unixBackend) AttachReadWrite(ctx context.Context, shmid int) ([]byte, error) {
	data, err := unix.SysvShmAttach(shmid, 0, 0)
	if err != nil {
		return nil, errors.NewIpcError(err, errors.ErrorCodeShmAt, "shmat failed").
			WithShmid(shmid).WithOp("shmat")
	}
	return data, nil
}

func (unixBackend) Detach(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := unix.SysvShmDetach(data); err != nil {
		return errors.NewIpcError(err, errors.ErrorCodeShmDt, "shmdt failed").WithOp("shmdt")
	}
	return nil
}

// SetOwnership applies the recorded uid/gid/mode via shmctl(IPC_SET),
// masking mode to the low 9 bits per spec.
func (unixBackend) SetOwnership(ctx context.Context, shmid int, uid, gid, mode uint32) error {
	var desc unix.SysvShmDesc
	if _, err := unix.SysvShmCtl(shmid, unix.IPC_STAT, &desc); err != nil {
		return errors.NewIpcError(err, errors.ErrorCodeShmCtl, "shmctl(IPC_STAT) failed").
			WithShmid(shmid).WithOp("shmctl")
	}

	desc.Perm.Uid = uid
	desc.Perm.Gid = gid
	desc.Perm.Mode = mode & 0o777

	if _, err := unix.SysvShmCtl(shmid, unix.IPC_SET, &desc); err != nil {
		return errors.NewIpcError(err, errors.ErrorCodeShmCtl, "shmctl(IPC_SET) failed").
			WithShmid(shmid).WithOp("shmctl")
	}
	return nil
}

func (unixBackend) Destroy(ctx context.Context, shmid int) error {
	if _, err := unix.SysvShmCtl(shmid, unix.IPC_RMID, nil); err != nil {
		return errors.NewIpcError(err, errors.ErrorCodeShmCtl, "shmctl(IPC_RMID) failed").
			WithShmid(shmid).WithOp("shmctl")
	}
	return nil
}
