// Package browser hands files and URLs to the desktop's default handler.
package browser

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// start launches the handler without waiting for it. Tests replace it.
var start = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Open opens target, a URL or a local path, with the default application.
// Relative paths are resolved against the working directory first.
func Open(target string) error {
	if !strings.Contains(target, "://") {
		abs, err := filepath.Abs(target)
		if err != nil {
			return fmt.Errorf("browser.Open: %w", err)
		}
		target = abs
	}
	name, args, err := command(runtime.GOOS, target)
	if err != nil {
		return err
	}
	if err := start(name, args...); err != nil {
		return fmt.Errorf("browser.Open: %w", err)
	}
	return nil
}

func command(goos, target string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{target}, nil
	case "linux":
		return "xdg-open", []string{target}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}, nil
	default:
		return "", nil, fmt.Errorf("browser.Open: unsupported OS: %s", goos)
	}
}
