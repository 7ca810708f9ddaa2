package config

import "errors"

// Validation errors returned by Config.Validate, check them with errors.Is.
var (
	ErrNoSites             = errors.New("no sites configured")
	ErrInvalidConcurrency  = errors.New("invalid concurrency: must be positive")
	ErrInvalidRate         = errors.New("invalid requests per second: must not be negative")
	ErrNoSiteName          = errors.New("site without name")
	ErrDuplicateSite       = errors.New("duplicate site name")
	ErrNoBaseURL           = errors.New("site without base url")
	ErrNoListingSelector   = errors.New("site without listing selector")
	ErrNoFieldName         = errors.New("field without name")
	ErrDuplicateField      = errors.New("duplicate field name")
	ErrNoFieldSelector     = errors.New("field without selector")
	ErrInvalidPattern      = errors.New("invalid pattern")
	ErrInvalidReduce       = errors.New("invalid reduce")
	ErrInvalidLastPageMode = errors.New("invalid last page mode")
)
