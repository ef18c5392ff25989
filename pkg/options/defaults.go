package options

const (
	// MinInstance is the lowest valid database instance number.
	MinInstance uint8 = 0

	// MaxInstance is the highest valid database instance number.
	MaxInstance uint8 = 15

	// DefaultInstance is used when -i is not given on the command line.
	DefaultInstance uint8 = 0

	// MinThreads is the lowest accepted worker-pool size.
	MinThreads = 1

	// MaxThreads is the highest accepted worker-pool size.
	MaxThreads = 1024
)

// defaultOptions holds the baseline configuration before CLI flags or
// OptionFuncs are applied.
var defaultOptions = Options{
	Instance: DefaultInstance,
	Threads:  DefaultThreadCount(),
}

// NewDefaultOptions returns a copy of the baseline configuration.
func NewDefaultOptions() Options {
	return defaultOptions
}
