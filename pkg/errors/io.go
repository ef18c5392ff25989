package errors

// IoError is a specialized error type for filesystem and syscall failures:
// EACCES, ENOENT, EEXIST, ENOSPC, and partial-transfer anomalies. It embeds
// baseError to inherit all the standard error functionality, then adds
// fields that pinpoint exactly which file and offset were involved.
type IoError struct {
	*baseError
	path     string // Path of the file that caused the issue.
	fileName string // Base name of the file that caused the issue.
	offset   int64  // Byte offset within the file where the problem happened.
	errno    int    // Raw errno value, when the cause was a syscall.Errno.
}

// NewIoError creates a new I/O-specific error.
func NewIoError(err error, code ErrorCode, msg string) *IoError {
	return &IoError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while maintaining the IoError type.
func (ie *IoError) WithMessage(msg string) *IoError {
	ie.baseError.WithMessage(msg)
	return ie
}

// WithCode sets the error code while preserving the IoError type.
func (ie *IoError) WithCode(code ErrorCode) *IoError {
	ie.baseError.WithCode(code)
	return ie
}

// WithDetail adds contextual information while maintaining the IoError type.
func (ie *IoError) WithDetail(key string, value any) *IoError {
	ie.baseError.WithDetail(key, value)
	return ie
}

// WithPath records which path was being processed when the error occurred.
func (ie *IoError) WithPath(path string) *IoError {
	ie.path = path
	return ie
}

// WithFileName records which file was being processed when the error occurred.
func (ie *IoError) WithFileName(name string) *IoError {
	ie.fileName = name
	return ie
}

// WithOffset records the byte position where the error occurred.
func (ie *IoError) WithOffset(offset int64) *IoError {
	ie.offset = offset
	return ie
}

// WithErrno records the raw errno value, when known.
func (ie *IoError) WithErrno(errno int) *IoError {
	ie.errno = errno
	return ie
}

// Path returns the path that was being processed.
func (ie *IoError) Path() string { return ie.path }

// FileName returns the file name that was being processed.
func (ie *IoError) FileName() string { return ie.fileName }

// Offset returns the byte offset within the file where the error happened.
func (ie *IoError) Offset() int64 { return ie.offset }

// Errno returns the raw errno value, or 0 if unknown.
func (ie *IoError) Errno() int { return ie.errno }
