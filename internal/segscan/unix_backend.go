//go:build linux

package segscan

import (
	"context"

	"golang.org/x/sys/unix"

	"github.com/shmvault/shmvault/pkg/errors"
)

// Linux ipc command numbers not exported by golang.org/x/sys/unix under a
// name stable enough to depend on across versions; values match
// asm-generic/ipcbuf.h / linux/shm.h.
const (
	cmdSHMStat = 13
	cmdSHMInfo = 14
)

// unixBackend implements ipcBackend against the live kernel via
// golang.org/x/sys/unix's SysV shared-memory syscalls.
type unixBackend struct{}

// newUnixBackend returns the production ipcBackend.
func newUnixBackend() ipcBackend { return unixBackend{} }

func (unixBackend) MaxIndex(ctx context.Context) (int, error) {
	var desc unix.SysvShmDesc
	n, err := unix.SysvShmCtl(0, cmdSHMInfo, &desc)
	if err != nil {
		return 0, errors.NewIpcError(err, errors.ErrorCodeShmCtl, "shmctl(SHM_INFO) failed").WithOp("SHM_INFO")
	}
	return n, nil
}

func (unixBackend) Stat(ctx context.Context, index int) (descriptor, bool, error) {
	var desc unix.SysvShmDesc
	shmid, err := unix.SysvShmCtl(index, cmdSHMStat, &desc)
	if err != nil {
		// A gap in the kernel table (a destroyed segment's former slot)
		// surfaces as an error from SHM_STAT; treat it as "unused", not
		// a fatal condition for the whole scan.
		return descriptor{}, false, nil
	}

	return descriptor{
		ShmID:  shmid,
		Key:    uint32(desc.Perm.Key),
		Uid:    desc.Perm.Uid,
		Gid:    desc.Perm.Gid,
		Mode:   uint32(desc.Perm.Mode),
		Nattch: uint64(desc.Nattch),
		Size:   int64(desc.Segsz),
	}, true, nil
}

func (unixBackend) AttachReadOnly(ctx context.Context, shmid int) ([]byte, error) {
	data, err := unix.SysvShmAttach(shmid, 0, unix.SHM_RDONLY)
	if err != nil {
		return nil, errors.NewIpcError(err, errors.ErrorCodeShmAt, "shmat(SHM_RDONLY) failed").
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
