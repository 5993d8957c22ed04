package logbridge

import (
	"os"
	"strings"
)

const (
	// DefaultMaxDepth bounds the stack walk.
	DefaultMaxDepth = 10

	// UnknownSource is reported when no frame carries a source name.
	UnknownSource = "unknown"

	// FileMarker prefixes chunk names that were loaded from a file.
	FileMarker = '@'
)

// Frame is one call-stack entry as seen by the walker.
type Frame struct {
	// Source is the chunk name the runtime reports; it may be empty.
	Source string

	// Line is the current line, or -1 when unknown.
	Line int
}

// Frames is a finite, indexed view of a call stack. Depth 0 is the bridge's
// own frame, 1 its caller, and so on.
type Frames interface {
	Depth() int
	Frame(depth int) Frame
}

// FrameList is a Frames backed by a slice, innermost first.
type FrameList []Frame

// Depth implements Frames.
func (l FrameList) Depth() int { return len(l) }

// Frame implements Frames.
func (l FrameList) Frame(depth int) Frame { return l[depth] }

// Attribution is the location a log line is charged to.
type Attribution struct {
	Path     string
	Line     int
	Fallback bool
}

// Walker finds the nearest file-backed frame on a call stack. It is an
// immutable value and safe for concurrent use.
type Walker struct {
	baseDir  string
	maxDepth int
}

// NewWalker returns a walker that inspects at most maxDepth frames and
// presents paths under baseDir relative to it. An empty baseDir disables
// shortening; a non-positive maxDepth selects DefaultMaxDepth.
func NewWalker(baseDir string, maxDepth int) Walker {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return Walker{baseDir: baseDir, maxDepth: maxDepth}
}

// BaseDir returns the configured base directory.
func (w Walker) BaseDir() string { return w.baseDir }

// MaxDepth returns the walk bound.
func (w Walker) MaxDepth() int {
	if w.maxDepth <= 0 {
		return DefaultMaxDepth
	}
	return w.maxDepth
}

// Attribute walks outward from the caller of the bridge and returns the first
// frame whose source is an absolute path or carries the file marker. When no
// such frame exists within the bound, the first inspected frame is returned
// unmodified and marked as a fallback.
func (w Walker) Attribute(frames Frames) Attribution {
	first := Attribution{Path: UnknownSource, Line: -1, Fallback: true}
	if frames == nil {
		return first
	}

	depth := frames.Depth()
	for i := 1; i <= w.MaxDepth() && i < depth; i++ {
		f := frames.Frame(i)
		if i == 1 && f.Source != "" {
			first.Path, first.Line = f.Source, f.Line
		}
		if isFileBacked(f.Source) {
			return Attribution{Path: w.Normalize(f.Source), Line: f.Line}
		}
	}
	return first
}

// Normalize strips one leading file marker and, when the path lies under
// the base directory, the base directory and one following separator.
func (w Walker) Normalize(source string) string {
	path := strings.TrimPrefix(source, string(FileMarker))
	if w.baseDir != "" && strings.HasPrefix(path, w.baseDir) {
		path = path[len(w.baseDir):]
		if len(path) > 0 && path[0] == os.PathSeparator {
			path = path[1:]
		}
	}
	return path
}

func isFileBacked(source string) bool {
	return source != "" && (source[0] == '/' || source[0] == FileMarker)
}
