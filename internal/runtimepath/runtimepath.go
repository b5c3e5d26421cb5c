package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
)

const appDirName = "omaveil"

// Dir returns the session-scoped runtime directory. Everything stored under it
// is expected to disappear on logout or reboot. Priority:
// 1) XDG_RUNTIME_DIR (if set)
// 2) /run/user/<uid> (if present)
// 3) /tmp/omaveil-runtime-<uid> (created)
func Dir() (string, error) {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return runtimeDir, nil
	}

	uid := os.Getuid()
	runUserDir := fmt.Sprintf("/run/user/%d", uid)
	if info, err := os.Stat(runUserDir); err == nil && info.IsDir() {
		return runUserDir, nil
	}

	tmpDir := fmt.Sprintf("/tmp/omaveil-runtime-%d", uid)
	if err := os.MkdirAll(tmpDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return tmpDir, nil
}

// AppDir returns the omaveil subdirectory of the runtime directory.
// It is not created here; the store and the diagnostics log create it lazily.
func AppDir() (string, error) {
	runtimeDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(runtimeDir, appDirName), nil
}

// StatePath returns the minimized-window state file path.
func StatePath() (string, error) {
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "windows.json"), nil
}

// LogPath returns the diagnostics log path.
func LogPath() (string, error) {
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "omaveil.log"), nil
}
