package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.starlark.net/starlark"

	"github.com/openfroyo/chassis/pkg/logbridge"
)

// ErrModuleNotFound is returned when load() cannot find a module on the
// search path.
var ErrModuleNotFound = errors.New("module not found")

type loadEntry struct {
	globals starlark.StringDict
	err     error
	loading bool
}

// loader resolves load() statements for one execution. Modules run on the
// loading thread, so their frames show up in log attribution, and each
// module is executed at most once.
type loader struct {
	searchPath []string
	env        starlark.StringDict
	cache      map[string]*loadEntry
}

func newLoader(searchPath []string, env starlark.StringDict) *loader {
	return &loader{
		searchPath: searchPath,
		env:        env,
		cache:      make(map[string]*loadEntry),
	}
}

func (l *loader) load(thread *starlark.Thread, module string) (starlark.StringDict, error) {
	path, err := l.resolve(module)
	if err != nil {
		return nil, err
	}

	if e, ok := l.cache[path]; ok {
		if e.loading {
			return nil, fmt.Errorf("cycle in load graph at %s", module)
		}
		return e.globals, e.err
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read module %s: %w", module, err)
	}

	e := &loadEntry{loading: true}
	l.cache[path] = e
	e.globals, e.err = starlark.ExecFile(thread, string(logbridge.FileMarker)+path, src, l.env)
	e.loading = false
	return e.globals, e.err
}

func (l *loader) resolve(module string) (string, error) {
	if filepath.IsAbs(module) {
		if _, err := os.Stat(module); err != nil {
			return "", fmt.Errorf("%w: %s", ErrModuleNotFound, module)
		}
		return filepath.Clean(module), nil
	}

	for _, dir := range l.searchPath {
		candidate := filepath.Join(dir, module)
		if _, err := os.Stat(candidate); err == nil {
			if abs, err := filepath.Abs(candidate); err == nil {
				candidate = abs
			}
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrModuleNotFound, module)
}
