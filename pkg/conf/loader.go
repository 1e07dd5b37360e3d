package conf

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrNotFound is returned when no config source can be located.
var ErrNotFound = errors.New("config not found")

// Conventional source names, relative to each searched directory.
var searchNames = []string{
	"upstate.conf",
	filepath.Join("etc", "upstate.conf"),
	filepath.Join("etc", "upstate.d"),
}

// Loader locates and reads config sources.
type Loader struct {
	Fs     afero.Fs
	Logger *zap.Logger
}

// NewLoader returns a Loader reading from fs.
func NewLoader(fs afero.Fs, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{Fs: fs, Logger: logger}
}

// Locate finds the config source. An explicit override must exist. Otherwise
// the directories above the executable and the working directory are searched
// in that order.
func (l *Loader) Locate(override, exe, wd string) (string, error) {
	if override != "" {
		if !l.exists(override) {
			return "", fmt.Errorf("%w: config file not found: %s", ErrNotFound, override)
		}
		return override, nil
	}
	var dirs []string
	if exe != "" {
		dirs = append(dirs, ancestors(filepath.Dir(exe))...)
	}
	if wd != "" {
		dirs = append(dirs, ancestors(wd)...)
	}
	for _, dir := range dirs {
		for _, name := range searchNames {
			path := filepath.Join(dir, name)
			if l.exists(path) {
				l.Logger.Debug("located config source", zap.String("path", path))
				return path, nil
			}
		}
	}
	return "", fmt.Errorf("%w: no upstate.conf file found", ErrNotFound)
}

// Load reads the source at path. A directory contributes its files in sorted
// name order, concatenated.
func (l *Loader) Load(path string) (*Config, error) {
	files, err := l.sourceFiles(path)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	var errs error
	for _, file := range files {
		data, err := afero.ReadFile(l.Fs, file)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("reading %s: %w", file, err))
			continue
		}
		buf.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	if errs != nil {
		return nil, errs
	}
	items, err := Parse(&buf)
	if err != nil {
		return nil, err
	}
	l.Logger.Debug("loaded config",
		zap.String("path", path),
		zap.Int("files", len(files)),
		zap.Int("services", len(items)))
	return New(l.Fs, items...), nil
}

func (l *Loader) sourceFiles(path string) ([]string, error) {
	info, err := l.Fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading config source: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := afero.ReadDir(l.Fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading config directory %s: %w", path, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			l.Logger.Debug("skipping config entry", zap.String("name", entry.Name()))
			continue
		}
		files = append(files, filepath.Join(path, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func (l *Loader) exists(path string) bool {
	ok, err := afero.Exists(l.Fs, path)
	return err == nil && ok
}

// ancestors returns dir followed by each of its parents up to the root.
func ancestors(dir string) []string {
	dir = filepath.Clean(dir)
	dirs := []string{dir}
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return dirs
		}
		dirs = append(dirs, parent)
		dir = parent
	}
}
