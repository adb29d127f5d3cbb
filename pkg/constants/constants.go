// Package constants provides shared constants used throughout the nhsmongifyer codebase.
// This includes endpoints, timeouts, file permissions, and the defaults applied
// when a run does not override them.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the transport timeout for requests to the remote APIs
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultLookupDelay is the pause before each provider lookup
	DefaultLookupDelay = 1 * time.Second

	// ShutdownTimeout bounds graceful shutdown of the server and scheduler
	ShutdownTimeout = 5 * time.Second

	// ReadHeaderTimeout is the header read timeout for the collections server
	ReadHeaderTimeout = 10 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Pagination defaults for the contracts API
const (
	// DefaultPageLimit is the number of agreements requested per page
	DefaultPageLimit = 25

	// DefaultStartPage is the first page requested
	DefaultStartPage = 1

	// MaxPageLimit is the largest page size the contracts API accepts
	MaxPageLimit = 25

	// DefaultMaxPageAttempts bounds consecutive failures on one page
	DefaultMaxPageAttempts = 3

	// DefaultYear is the contract year used when a run does not name one
	DefaultYear = 2025
)

// Remote API constants
const (
	// NFZBaseURL is the base URL of the NFZ contracts API
	NFZBaseURL = "https://api.nfz.gov.pl/app-umw-api"

	// NFZAPIVersion is sent as api-version on every contracts request
	NFZAPIVersion = "1.2"

	// GeoapifyBaseURL is the base URL of the Geoapify API
	GeoapifyBaseURL = "https://api.geoapify.com/v1"

	// GeoapifyKeyEnv names the environment variable holding the Geoapify key
	GeoapifyKeyEnv = "GEOAPIFY_KEY"

	// ResponseFormat is the format query value sent to both APIs
	ResponseFormat = "json"
)

// Path constants
const (
	// DefaultOutputDir is the default output root
	DefaultOutputDir = "."

	// DataRoot is the directory created under the output root
	DataRoot = "HealthCareData"

	// DefaultConfigName is the config file name searched in $HOME and the working directory
	DefaultConfigName = ".nhsmongifyer"
)

// Server defaults
const (
	// DefaultServeAddr is the listen address of the collections API
	DefaultServeAddr = ":8080"

	// DefaultIndexPrefix prefixes Elasticsearch index names
	DefaultIndexPrefix = "nfz"
)
