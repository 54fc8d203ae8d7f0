package utils

import "os"

func ExitBad(isSystemd bool) {
	if isSystemd {
		os.Exit(255)
		return
	}

	os.Exit(1)
}

// IsSystemd reports whether we were started as a systemd unit.
func IsSystemd() bool {
	return os.Getenv("INVOCATION_ID") != ""
}
