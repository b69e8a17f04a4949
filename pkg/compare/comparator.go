package compare

// DefaultBlockSize is the block size used when none is configured
const DefaultBlockSize = 512

// Result represents the outcome of comparing two files
type Result string

const (
	// Same indicates files are identical
	Same Result = "same"
	// Different indicates file contents differ
	Different Result = "different"
	// DifferentSize indicates files differ in length, contents were not read
	DifferentSize Result = "different_size"
)

// Comparison holds the result of comparing two files
type Comparison struct {
	PathA  string
	PathB  string
	SizeA  int64
	SizeB  int64
	Result Result
	Reason string
}

// Differs reports whether the comparison found a difference
func (c *Comparison) Differs() bool {
	return c.Result != Same
}
