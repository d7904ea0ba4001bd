// Package clipboard reads the system clipboard through whichever
// platform tool is installed. Wayland's wl-paste is preferred, then
// xclip and xsel; on macOS pbpaste handles text. HTML and image
// flavors are best-effort: not every tool or selection carries them.
package clipboard

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"main/capture"
)

const commandTimeout = 5 * time.Second

type flavor struct {
	name string
	args []string
}

// Reader shells out to the detected clipboard tool for each flavor.
// A nil flavor means the tool cannot serve it.
type Reader struct {
	text  *flavor
	html  *flavor
	image *flavor
}

var tools = []struct {
	name  string
	text  []string
	html  []string
	image []string
}{
	{
		name:  "wl-paste",
		text:  []string{"--no-newline"},
		html:  []string{"--no-newline", "--type", "text/html"},
		image: []string{"--type", "image/png"},
	},
	{
		name:  "xclip",
		text:  []string{"-out", "-selection", "clipboard"},
		html:  []string{"-out", "-selection", "clipboard", "-t", "text/html"},
		image: []string{"-out", "-selection", "clipboard", "-t", "image/png"},
	},
	{
		name: "xsel",
		text: []string{"--output", "--clipboard"},
	},
}

// NewReader detects the first available clipboard tool.
func NewReader() (*Reader, error) {
	if runtime.GOOS == "darwin" {
		if _, err := exec.LookPath("pbpaste"); err == nil {
			return &Reader{text: &flavor{name: "pbpaste"}}, nil
		}
		return nil, fmt.Errorf("pbpaste not found")
	}

	for _, tool := range tools {
		if _, err := exec.LookPath(tool.name); err != nil {
			continue
		}
		r := &Reader{text: &flavor{name: tool.name, args: tool.text}}
		if tool.html != nil {
			r.html = &flavor{name: tool.name, args: tool.html}
		}
		if tool.image != nil {
			r.image = &flavor{name: tool.name, args: tool.image}
		}
		return r, nil
	}
	return nil, fmt.Errorf("no clipboard tool found (install wl-clipboard, xclip, or xsel)")
}

// Read collects the current clipboard state. Text failure is fatal;
// the richer flavors degrade silently to absent.
func (r *Reader) Read(ctx context.Context) (capture.Snapshot, error) {
	var snap capture.Snapshot

	text, err := r.run(ctx, r.text)
	if err != nil {
		return snap, err
	}
	snap.Text = string(text)

	if html, err := r.run(ctx, r.html); err == nil {
		snap.HTML = string(html)
	}
	if img, err := r.run(ctx, r.image); err == nil {
		snap.Image = img
	}
	return snap, nil
}

func (r *Reader) run(ctx context.Context, f *flavor) ([]byte, error) {
	if f == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	output, err := exec.CommandContext(ctx, f.name, f.args...).Output()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("%s timed out after %v", f.name, commandTimeout)
	}
	if err != nil {
		// exit code 1 means the selection has no such target
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return nil, nil
		}
		return nil, fmt.Errorf("%s failed: %w", f.name, err)
	}
	return output, nil
}
