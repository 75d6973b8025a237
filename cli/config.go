package cli

// Config holds the configuration for the CLI.
type Config struct {
	// Max pages searched concurrently.
	// Large values will increase CPU and memory usage.
	// Default is 10.
	MaxConcurrency int

	// the PDF file being redacted
	File string

	// page number as entered on the command line (1-based)
	Page int

	// page to clear (1-based); 0 clears every page
	ClearPage int

	// rectangle spec "x0,y0,x1,y1" in document points
	RectSpec string

	// search term
	Term string

	// convert search hits into pending marks
	AddMarks bool

	// mark id to remove
	MarkID string

	// output path for apply and render
	Output string

	// render resolution
	DPI float64

	// server port. default is 8080
	Port int
}

var DefaultConfig = Config{
	MaxConcurrency: 10,
	Page:           1,
	DPI:            150,
	Port:           8080,
}
