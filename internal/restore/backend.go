package restore

import "context"

// backend is restore's minimal System V IPC surface: creating a segment
// exclusively, attaching it read-write, setting its ownership, and
// destroying it on failure. Kept separate from internal/backup's and
// internal/segscan's own IPC interfaces so each package owns only the
// syscalls its pipeline needs.
type backend interface {
	CreateExclusive(ctx context.Context, key uint32, size int64) (shmid int, err error)
	AttachReadWrite(ctx context.Context, shmid int) ([]byte, error)
	Detach(ctx context.Context, data []byte) error
	SetOwnership(ctx context.Context, shmid int, uid, gid, mode uint32) error
	Destroy(ctx context.Context, shmid int) error
}
