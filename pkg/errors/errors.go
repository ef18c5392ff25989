// Package errors transforms generic failures into one of six typed kinds
// (ArgError, IoError, IpcError, FormatError, IntegrityError, ConflictError)
// so every layer of shmvault can recover structured context — key, path,
// offset, shmid — without parsing a message string, and so callers can
// dispatch on Code() for monitoring and recovery decisions.
//
// The hierarchy mirrors the taxonomy in the project's design document:
// a foundational baseError carries cause, message, code, and a details
// map, and each concrete kind adds the fields specific to its domain.
package errors

import (
	stdErrors "errors"
	"os"
	"syscall"
)

// IsArgError reports whether err is, or wraps, an ArgError.
func IsArgError(err error) bool {
	var ae *ArgError
	return stdErrors.As(err, &ae)
}

// IsIoError reports whether err is, or wraps, an IoError.
func IsIoError(err error) bool {
	var ie *IoError
	return stdErrors.As(err, &ie)
}

// IsIpcError reports whether err is, or wraps, an IpcError.
func IsIpcError(err error) bool {
	var pe *IpcError
	return stdErrors.As(err, &pe)
}

// IsFormatError reports whether err is, or wraps, a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return stdErrors.As(err, &fe)
}

// IsIntegrityError reports whether err is, or wraps, an IntegrityError.
func IsIntegrityError(err error) bool {
	var ce *IntegrityError
	return stdErrors.As(err, &ce)
}

// IsConflictError reports whether err is, or wraps, a ConflictError.
func IsConflictError(err error) bool {
	var ce *ConflictError
	return stdErrors.As(err, &ce)
}

// AsArgError extracts an ArgError from an error chain.
func AsArgError(err error) (*ArgError, bool) {
	var ae *ArgError
	if stdErrors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// AsIoError extracts an IoError from an error chain.
func AsIoError(err error) (*IoError, bool) {
	var ie *IoError
	if stdErrors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// AsIpcError extracts an IpcError from an error chain.
func AsIpcError(err error) (*IpcError, bool) {
	var pe *IpcError
	if stdErrors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// AsFormatError extracts a FormatError from an error chain.
func AsFormatError(err error) (*FormatError, bool) {
	var fe *FormatError
	if stdErrors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// AsIntegrityError extracts an IntegrityError from an error chain.
func AsIntegrityError(err error) (*IntegrityError, bool) {
	var ce *IntegrityError
	if stdErrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// AsConflictError extracts a ConflictError from an error chain.
func AsConflictError(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if stdErrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from any error that supports it, or
// returns ErrorCodeInternal for errors that don't carry a specific code.
func GetErrorCode(err error) ErrorCode {
	if ae, ok := AsArgError(err); ok {
		return ae.Code()
	}
	if ie, ok := AsIoError(err); ok {
		return ie.Code()
	}
	if pe, ok := AsIpcError(err); ok {
		return pe.Code()
	}
	if fe, ok := AsFormatError(err); ok {
		return fe.Code()
	}
	if ce, ok := AsIntegrityError(err); ok {
		return ce.Code()
	}
	if ce, ok := AsConflictError(err); ok {
		return ce.Code()
	}
	return ErrorCodeInternal
}

// GetErrorDetails extracts structured details from any error that supports
// them, returning an empty map for errors without details.
func GetErrorDetails(err error) map[string]any {
	if ae, ok := AsArgError(err); ok && ae.Details() != nil {
		return ae.Details()
	}
	if ie, ok := AsIoError(err); ok && ie.Details() != nil {
		return ie.Details()
	}
	if pe, ok := AsIpcError(err); ok && pe.Details() != nil {
		return pe.Details()
	}
	if fe, ok := AsFormatError(err); ok && fe.Details() != nil {
		return fe.Details()
	}
	if ce, ok := AsIntegrityError(err); ok && ce.Details() != nil {
		return ce.Details()
	}
	if ce, ok := AsConflictError(err); ok && ce.Details() != nil {
		return ce.Details()
	}
	return make(map[string]any)
}

// ClassifyFileOpenError analyzes a failed os.OpenFile/os.Create call and
// returns an IoError with the most specific code the underlying errno
// supports, so callers don't have to repeat this syscall.Errno dance at
// every call site.
func ClassifyFileOpenError(err error, path, fileName string) error {
	if os.IsPermission(err) {
		return NewIoError(err, ErrorCodePermissionDenied, "insufficient permissions to open file").
			WithPath(path).WithFileName(fileName)
	}
	if os.IsExist(err) {
		return NewConflictError(ErrorCodeFileExists, "destination file already exists").
			WithPath(path).WithDetail("fileName", fileName)
	}

	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ENOSPC:
				return NewIoError(err, ErrorCodeDiskFull, "insufficient disk space to create file").
					WithPath(path).WithFileName(fileName).WithErrno(int(errno))
			case syscall.EROFS:
				return NewIoError(err, ErrorCodeFilesystemReadonly, "cannot create file on a read-only filesystem").
					WithPath(path).WithFileName(fileName).WithErrno(int(errno))
			case syscall.EEXIST:
				return NewConflictError(ErrorCodeFileExists, "destination file already exists").
					WithPath(path).WithDetail("fileName", fileName)
			}
		}
	}

	return NewIoError(err, ErrorCodeIO, "failed to open file").WithPath(path).WithFileName(fileName)
}

// ClassifyDirectoryCreationError analyzes a failed directory-creation call
// and returns an IoError with the most specific code available.
func ClassifyDirectoryCreationError(err error, path string) error {
	if os.IsPermission(err) {
		return NewIoError(err, ErrorCodePermissionDenied, "insufficient permissions to create directory").
			WithPath(path)
	}

	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ENOSPC:
				return NewIoError(err, ErrorCodeDiskFull, "insufficient disk space to create directory").
					WithPath(path).WithErrno(int(errno))
			case syscall.EROFS:
				return NewIoError(err, ErrorCodeFilesystemReadonly, "cannot create directory on a read-only filesystem").
					WithPath(path).WithErrno(int(errno))
			}
		}
	}

	return NewIoError(err, ErrorCodeIO, "failed to create directory").WithPath(path)
}
