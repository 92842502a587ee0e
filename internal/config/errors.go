package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoSeed is returned when no seed URL is configured.
	ErrNoSeed = errors.New("no seed URL specified")

	// ErrInvalidSeed is returned when the seed is not an absolute http(s) URL.
	ErrInvalidSeed = errors.New("invalid seed URL: must be an absolute http or https URL")

	// ErrNoAllowedDomain is returned when no domain can be derived for the crawl.
	ErrNoAllowedDomain = errors.New("no allowed domain: set --domain or use a seed with a host")

	// ErrSeedOutsideDomains is returned when the seed's host is not an allowed domain.
	ErrSeedOutsideDomains = errors.New("seed URL host is not in the allowed domains")

	// ErrNoOutput is returned when the output path is empty.
	ErrNoOutput = errors.New("no output path specified")

	// ErrInvalidConcurrency is returned when concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidBufferSize is returned when the buffer size is negative.
	ErrInvalidBufferSize = errors.New("invalid buffer size: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrEmptySelector is returned when the tag selector is blank.
	ErrEmptySelector = errors.New("tag selector must not be empty")

	// ErrNoDBDir is returned when the database is enabled without a directory.
	ErrNoDBDir = errors.New("database enabled but no directory configured")
)
