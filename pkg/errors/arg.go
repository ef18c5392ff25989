package errors

// ArgError is a specialized error type for CLI misuse: missing or invalid
// flags, and combinations that conflict with one another. It embeds
// baseError to inherit all the standard error functionality, then adds
// flag-specific fields that help identify exactly what was wrong and how
// to correct it.
type ArgError struct {
	*baseError

	// flag identifies which CLI flag failed validation, e.g. "-n" or "-t".
	flag string

	// rule names the constraint that was violated, e.g. "required" or "range".
	rule string

	// provided captures the value actually supplied on the command line.
	provided any

	// expected describes what would have been acceptable.
	expected any
}

// NewArgError creates a new CLI-argument error with the provided context.
func NewArgError(err error, code ErrorCode, msg string) *ArgError {
	return &ArgError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while maintaining the ArgError type.
func (ae *ArgError) WithMessage(msg string) *ArgError {
	ae.baseError.WithMessage(msg)
	return ae
}

// WithCode sets the error code while preserving the ArgError type.
func (ae *ArgError) WithCode(code ErrorCode) *ArgError {
	ae.baseError.WithCode(code)
	return ae
}

// WithDetail adds contextual information while maintaining the ArgError type.
func (ae *ArgError) WithDetail(key string, value any) *ArgError {
	ae.baseError.WithDetail(key, value)
	return ae
}

// WithFlag sets which flag failed validation.
func (ae *ArgError) WithFlag(flag string) *ArgError {
	ae.flag = flag
	return ae
}

// WithRule specifies which constraint was violated.
func (ae *ArgError) WithRule(rule string) *ArgError {
	ae.rule = rule
	return ae
}

// WithProvided captures the value that was supplied and failed validation.
func (ae *ArgError) WithProvided(value any) *ArgError {
	ae.provided = value
	return ae
}

// WithExpected describes what would have been an acceptable value.
func (ae *ArgError) WithExpected(value any) *ArgError {
	ae.expected = value
	return ae
}

// Flag returns the flag name that failed validation.
func (ae *ArgError) Flag() string { return ae.flag }

// Rule returns the constraint that was violated.
func (ae *ArgError) Rule() string { return ae.rule }

// Provided returns the value that was supplied and failed validation.
func (ae *ArgError) Provided() any { return ae.provided }

// Expected returns what would have been an acceptable value.
func (ae *ArgError) Expected() any { return ae.expected }

// NewMissingFlagError builds an ArgError for a required flag that was omitted.
func NewMissingFlagError(flag string) *ArgError {
	return NewArgError(nil, ErrorCodeMissingFlag, "required flag is missing").
		WithFlag(flag).WithRule("required")
}

// NewConflictingFlagsError builds an ArgError for flags that cannot be combined.
func NewConflictingFlagsError(a, b string) *ArgError {
	return NewArgError(nil, ErrorCodeConflictFlag, "flags cannot be combined").
		WithFlag(a).WithRule("mutually_exclusive").WithDetail("other", b)
}

// NewFlagRangeError builds an ArgError for a flag value outside its acceptable range.
func NewFlagRangeError(flag string, provided, min, max any) *ArgError {
	return NewArgError(nil, ErrorCodeInvalidFlag, "flag value is outside the acceptable range").
		WithFlag(flag).WithRule("range").WithProvided(provided).
		WithDetail("min", min).WithDetail("max", max)
}
