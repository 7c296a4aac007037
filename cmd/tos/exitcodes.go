package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (invalid config file, unwritable store)
	ExitDataError   = 3 // Data error (unreadable export, malformed snapshot)
	ExitNotFound    = 4 // Snapshot not found
)
