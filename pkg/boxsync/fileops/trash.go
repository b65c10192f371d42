package fileops

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

// trashTimeout is the maximum time to wait for trash commands.
const trashTimeout = 30 * time.Second

// moveToTrash moves a file or directory to the system trash.
// On macOS it uses AppleScript; on Linux it tries gio then trash-cli.
// An error means no trash tool succeeded and the caller should fall
// back to permanent deletion.
func moveToTrash(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve absolute path for %q: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(ctx, trashTimeout)
	defer cancel()

	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`tell application "Finder" to delete POSIX file %q`, absPath)
		return exec.CommandContext(ctx, "osascript", "-e", script).Run()
	case "linux":
		if gioPath, err := exec.LookPath("gio"); err == nil {
			if exec.CommandContext(ctx, gioPath, "trash", absPath).Run() == nil {
				return nil
			}
		}
		if trashPath, err := exec.LookPath("trash-put"); err == nil {
			if exec.CommandContext(ctx, trashPath, absPath).Run() == nil {
				return nil
			}
		}
		return fmt.Errorf("no trash tool available")
	default:
		return fmt.Errorf("no trash support on %s", runtime.GOOS)
	}
}
