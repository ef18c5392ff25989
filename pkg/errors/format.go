package errors

// FormatError is a specialized error type for malformed keys, filenames,
// compressed headers, and segment/file bodies that fail a sanity check
// (bad version, missing shutdown flag, arena-count mismatch, a missing
// stage in an otherwise contiguous run).
type FormatError struct {
	*baseError
	key      uint32 // The segment key involved, when known.
	path     string // The file path involved, when applicable.
	field    string // The field or region that failed the check.
	provided any    // The value actually observed.
	expected any    // The value or range that was required.
}

// NewFormatError creates a new format-specific error.
func NewFormatError(err error, code ErrorCode, msg string) *FormatError {
	return &FormatError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while maintaining the FormatError type.
func (fe *FormatError) WithMessage(msg string) *FormatError {
	fe.baseError.WithMessage(msg)
	return fe
}

// WithCode sets the error code while preserving the FormatError type.
func (fe *FormatError) WithCode(code ErrorCode) *FormatError {
	fe.baseError.WithCode(code)
	return fe
}

// WithDetail adds contextual information while maintaining the FormatError type.
func (fe *FormatError) WithDetail(key string, value any) *FormatError {
	fe.baseError.WithDetail(key, value)
	return fe
}

// WithKey records the segment key involved in the failure.
func (fe *FormatError) WithKey(key uint32) *FormatError {
	fe.key = key
	return fe
}

// WithPath records the file path involved in the failure.
func (fe *FormatError) WithPath(path string) *FormatError {
	fe.path = path
	return fe
}

// WithField records which field or region failed the check.
func (fe *FormatError) WithField(field string) *FormatError {
	fe.field = field
	return fe
}

// WithProvided records the value actually observed.
func (fe *FormatError) WithProvided(value any) *FormatError {
	fe.provided = value
	return fe
}

// WithExpected records the value or range that was required.
func (fe *FormatError) WithExpected(value any) *FormatError {
	fe.expected = value
	return fe
}

// Key returns the segment key involved in the failure, if any.
func (fe *FormatError) Key() uint32 { return fe.key }

// Path returns the file path involved in the failure, if any.
func (fe *FormatError) Path() string { return fe.path }

// Field returns the field or region that failed the check.
func (fe *FormatError) Field() string { return fe.field }

// Provided returns the value that was actually observed.
func (fe *FormatError) Provided() any { return fe.provided }

// Expected returns the value or range that was required.
func (fe *FormatError) Expected() any { return fe.expected }
