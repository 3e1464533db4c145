package cache

// Manager defines the interface for cache management operations.
type Manager interface {
	Clean(options CleanOptions) (*CleanResult, error)
	GetInfo() (*Info, error)
	GetDirectory() string
}

// CleanOptions specifies what to clean from the cache. With neither flag
// set everything is cleaned.
type CleanOptions struct {
	Downloads bool
	Build     bool
}

// CleanResult contains information about what was cleaned.
type CleanResult struct {
	TotalFreed     int64
	DownloadsFreed int64
	BuildFreed     int64
}

// Info represents cache information.
type Info struct {
	Directory      string
	TotalSize      int64
	DownloadsSize  int64
	DownloadsFiles int
	BuildSize      int64
	BuildFiles     int
}
