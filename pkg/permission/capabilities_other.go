//go:build !linux

package permission

var hasNetAdmin = func() bool { return false }
