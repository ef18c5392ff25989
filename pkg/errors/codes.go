package errors

// ErrorCode represents a standardized way to categorize different types of errors.
type ErrorCode string

// ArgError codes: CLI misuse, surfaced via usage text and a nonzero exit.
const (
	ErrorCodeMissingFlag  ErrorCode = "ARG_MISSING_FLAG"
	ErrorCodeInvalidFlag  ErrorCode = "ARG_INVALID_FLAG"
	ErrorCodeConflictFlag ErrorCode = "ARG_CONFLICTING_FLAGS"
)

// IoError codes: filesystem/syscall failures, errno-derived where possible.
const (
	ErrorCodeIO                 ErrorCode = "IO_ERROR"
	ErrorCodePermissionDenied   ErrorCode = "IO_PERMISSION_DENIED"
	ErrorCodeDiskFull           ErrorCode = "IO_DISK_FULL"
	ErrorCodeFilesystemReadonly ErrorCode = "IO_FILESYSTEM_READONLY"
	ErrorCodeShortTransfer      ErrorCode = "IO_SHORT_TRANSFER"
)

// IpcError codes: shmget/shmat/shmctl/shmdt failures.
const (
	ErrorCodeShmGet ErrorCode = "IPC_SHMGET_FAILED"
	ErrorCodeShmAt  ErrorCode = "IPC_SHMAT_FAILED"
	ErrorCodeShmDt  ErrorCode = "IPC_SHMDT_FAILED"
	ErrorCodeShmCtl ErrorCode = "IPC_SHMCTL_FAILED"
)

// FormatError codes: malformed keys, filenames, headers, or segment bodies.
const (
	ErrorCodeInvalidKey         ErrorCode = "FORMAT_INVALID_KEY"
	ErrorCodeInvalidFilename    ErrorCode = "FORMAT_INVALID_FILENAME"
	ErrorCodeInvalidHeader      ErrorCode = "FORMAT_INVALID_HEADER"
	ErrorCodeIncompleteUnit     ErrorCode = "FORMAT_INCOMPLETE_UNIT"
	ErrorCodeDiscontiguous      ErrorCode = "FORMAT_DISCONTIGUOUS_STAGES"
	ErrorCodeBadVersion         ErrorCode = "FORMAT_BAD_VERSION"
	ErrorCodeNotShutdown        ErrorCode = "FORMAT_NOT_SHUTDOWN"
	ErrorCodeArenaCountMismatch ErrorCode = "FORMAT_ARENA_COUNT_MISMATCH"
)

// IntegrityError codes: CRC32 mismatches between segment and file image.
const ErrorCodeChecksumMismatch ErrorCode = "INTEGRITY_CHECKSUM_MISMATCH"

// ConflictError codes: a destination already exists.
const (
	ErrorCodeFileExists    ErrorCode = "CONFLICT_FILE_EXISTS"
	ErrorCodeSegmentExists ErrorCode = "CONFLICT_SEGMENT_EXISTS"
)

// ErrorCodeInternal is the fallback for errors that don't carry a specific code.
const ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
