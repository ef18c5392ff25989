package errors

// ConflictError reports a destination that already exists: a backup file
// present for the target (instance, nsid), or a shared-memory segment
// already allocated at the target restore key.
type ConflictError struct {
	*baseError
	key  uint32 // The segment key that already exists at the destination.
	path string // The conflicting file path, on backup.
}

// NewConflictError creates a new destination-conflict error.
func NewConflictError(code ErrorCode, msg string) *ConflictError {
	return &ConflictError{baseError: NewBaseError(nil, code, msg)}
}

// WithDetail adds contextual information while maintaining the ConflictError type.
func (ce *ConflictError) WithDetail(key string, value any) *ConflictError {
	ce.baseError.WithDetail(key, value)
	return ce
}

// WithKey records the segment key that already exists at the destination.
func (ce *ConflictError) WithKey(key uint32) *ConflictError {
	ce.key = key
	return ce
}

// WithPath records the conflicting file path.
func (ce *ConflictError) WithPath(path string) *ConflictError {
	ce.path = path
	return ce
}

// Key returns the segment key that already exists at the destination.
func (ce *ConflictError) Key() uint32 { return ce.key }

// Path returns the conflicting file path, if applicable.
func (ce *ConflictError) Path() string { return ce.path }
