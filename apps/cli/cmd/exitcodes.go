package cmd

// Exit codes for stopwatch CLI
const (
	// ExitSuccess indicates the command completed
	ExitSuccess = 0

	// ExitRequestFailure indicates an HTTP error status, a failed schema
	// check or a timesheet the API rejected
	ExitRequestFailure = 1

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)
