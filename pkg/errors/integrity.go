package errors

// IntegrityError reports a CRC32 mismatch between a segment image and its
// file image, detected during backup verification or restore verification.
type IntegrityError struct {
	*baseError
	key      uint32 // The segment key whose checksums disagreed.
	path     string // The file path involved, when applicable.
	expected uint32 // The checksum recorded at enumeration/header time.
	actual   uint32 // The checksum computed from the transferred bytes.
}

// NewIntegrityError creates a new checksum-mismatch error.
func NewIntegrityError(msg string) *IntegrityError {
	return &IntegrityError{baseError: NewBaseError(nil, ErrorCodeChecksumMismatch, msg)}
}

// WithDetail adds contextual information while maintaining the IntegrityError type.
func (ce *IntegrityError) WithDetail(key string, value any) *IntegrityError {
	ce.baseError.WithDetail(key, value)
	return ce
}

// WithKey records the segment key whose checksums disagreed.
func (ce *IntegrityError) WithKey(key uint32) *IntegrityError {
	ce.key = key
	return ce
}

// WithPath records the file path involved.
func (ce *IntegrityError) WithPath(path string) *IntegrityError {
	ce.path = path
	return ce
}

// WithChecksums records the expected and actual CRC32 values.
func (ce *IntegrityError) WithChecksums(expected, actual uint32) *IntegrityError {
	ce.expected = expected
	ce.actual = actual
	return ce
}

// Key returns the segment key whose checksums disagreed.
func (ce *IntegrityError) Key() uint32 { return ce.key }

// Path returns the file path involved.
func (ce *IntegrityError) Path() string { return ce.path }

// Expected returns the checksum recorded at enumeration/header time.
func (ce *IntegrityError) Expected() uint32 { return ce.expected }

// Actual returns the checksum computed from the transferred bytes.
func (ce *IntegrityError) Actual() uint32 { return ce.actual }
