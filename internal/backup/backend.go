package backup

import "context"

// attacher is the narrow slice of System V shared-memory syscalls the
// backup pipeline needs: read-only attach of an existing segment, and
// detach. It is independent of internal/segscan's enumeration-oriented
// ipcBackend so this package has no compile-time dependency on it.
type attacher interface {
	AttachReadOnly(ctx context.Context, shmid int) ([]byte, error)
	Detach(ctx context.Context, data []byte) error
}
