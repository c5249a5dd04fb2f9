package domain

import "go.trai.ch/zerr"

// ExitCodeKey is the zerr metadata key carrying a process exit status.
const ExitCodeKey = "exit_code"

// ExitCode maps an error to a process exit status.
// It returns 0 for nil, the first positive exit_code found in the error chain,
// and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if code, ok := findExitCode(err); ok {
		return code
	}
	return 1
}

func findExitCode(err error) (int, bool) {
	for err != nil {
		if ze, ok := err.(*zerr.Error); ok { //nolint:errorlint // walking the chain one link at a time
			if code, ok := ze.Metadata()[ExitCodeKey].(int); ok && code > 0 {
				return code, true
			}
		}

		switch e := err.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range e.Unwrap() {
				if code, ok := findExitCode(inner); ok {
					return code, true
				}
			}
			return 0, false
		case interface{ Unwrap() error }:
			err = e.Unwrap()
		default:
			return 0, false
		}
	}
	return 0, false
}
