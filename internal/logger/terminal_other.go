//go:build !linux && !darwin

package logger

// isTerminal reports false on platforms without termios support
func isTerminal(fd uintptr) bool {
	return false
}
