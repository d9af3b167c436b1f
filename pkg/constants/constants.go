// Package constants provides shared constants used throughout the directory codebase.
// This includes timeouts, limits, file permissions, and other configuration values
// that should be consistent across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the per-call timeout for every outbound HTTP request
	DefaultHTTPTimeout = 30 * time.Second

	// CommandTimeout is the default timeout for a whole CLI run
	CommandTimeout = 10 * time.Minute

	// ShutdownTimeout bounds cleanup after a failed run
	ShutdownTimeout = 5 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// MaxConcurrentSources is the number of sources fetched at the same time
	MaxConcurrentSources = 6

	// MaxConcurrentChannels is the size of the channel membership worker pool
	MaxConcurrentChannels = 8

	// DefaultPageSize is the page size requested from paginated upstream APIs
	DefaultPageSize = 200

	// MaxPages caps cursor pagination so a misbehaving upstream cannot loop forever
	MaxPages = 500

	// MaxResponseBytes caps how much of an upstream body is read into memory (16 MB)
	MaxResponseBytes = 16 << 20
)

// Picture constants
const (
	// AvatarSize is the edge length in pixels of the square avatar
	AvatarSize = 400

	// AvatarQuality is the JPEG quality used when persisting avatars
	AvatarQuality = 90

	// AvatarPrefix prefixes every avatar filename
	AvatarPrefix = "volunteer-"

	// AvatarExt is the avatar file extension
	AvatarExt = ".jpg"
)

// Path constants
const (
	// DefaultOutputPath is where the public JSON document is written
	DefaultOutputPath = "volunteers.json"

	// DefaultPicturesPath is where avatar files are written
	DefaultPicturesPath = "pictures"

	// DefaultConfigName is the config file name searched in $HOME and the working directory
	DefaultConfigName = ".directory"
)

// Format constants
const (
	// JSONIndent is the indentation of the published document
	JSONIndent = "  "
)
