package config

import "errors"

// ErrConfiguration marks unreadable or invalid configuration. It is fatal at
// startup.
var ErrConfiguration = errors.New("invalid configuration")
