// Package filter decides which files take part in a run.
package filter

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

// ErrInvalidPattern is returned when a pattern does not compile.
var ErrInvalidPattern = errors.New("invalid pattern")

// Filter combines a match expression, an ignore expression and ignore globs.
// A nil *Filter allows every path.
type Filter struct {
	root   string
	match  *regexp.Regexp
	ignore *regexp.Regexp
	globs  []glob.Glob
}

// Option configures a Filter.
type Option func(*config)

type config struct {
	root        string
	match       string
	ignore      string
	ignoreGlobs []string
}

// WithRoot sets the directory that glob patterns are relative to.
func WithRoot(root string) Option {
	return func(c *config) {
		c.root = root
	}
}

// WithMatch requires paths to match the regular expression.
func WithMatch(pattern string) Option {
	return func(c *config) {
		c.match = pattern
	}
}

// WithIgnore excludes paths matching the regular expression.
func WithIgnore(pattern string) Option {
	return func(c *config) {
		c.ignore = pattern
	}
}

// WithIgnoreGlobs excludes paths whose base name, slash-separated path
// relative to the root, or slash-separated full path matches any of the
// glob patterns.
func WithIgnoreGlobs(patterns ...string) Option {
	return func(c *config) {
		c.ignoreGlobs = append(c.ignoreGlobs, patterns...)
	}
}

// New compiles a filter. It returns nil when no option sets a pattern.
func New(opts ...Option) (*Filter, error) {
	var c config
	for _, opt := range opts {
		opt(&c)
	}

	if c.match == "" && c.ignore == "" && len(c.ignoreGlobs) == 0 {
		return nil, nil
	}

	f := &Filter{root: c.root}
	var err error
	if c.match != "" {
		if f.match, err = regexp.Compile(c.match); err != nil {
			return nil, fmt.Errorf("%w: match %q: %w", ErrInvalidPattern, c.match, err)
		}
	}
	if c.ignore != "" {
		if f.ignore, err = regexp.Compile(c.ignore); err != nil {
			return nil, fmt.Errorf("%w: ignore %q: %w", ErrInvalidPattern, c.ignore, err)
		}
	}
	for _, pattern := range c.ignoreGlobs {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("%w: glob %q: %w", ErrInvalidPattern, pattern, err)
		}
		f.globs = append(f.globs, g)
	}

	return f, nil
}

// Allow reports whether path takes part in the run. The match expression is
// applied first, then the ignore expression and globs.
func (f *Filter) Allow(path string) bool {
	if f == nil {
		return true
	}
	if f.match != nil && !f.match.MatchString(path) {
		return false
	}
	if f.ignore != nil && f.ignore.MatchString(path) {
		return false
	}
	if len(f.globs) > 0 {
		candidates := []string{filepath.Base(path), filepath.ToSlash(path)}
		if rel, ok := f.relative(path); ok {
			candidates = append(candidates, rel)
		}
		for _, g := range f.globs {
			for _, c := range candidates {
				if g.Match(c) {
					return false
				}
			}
		}
	}
	return true
}

// relative returns path below the root with forward slashes.
func (f *Filter) relative(path string) (string, bool) {
	if f.root == "" {
		return "", false
	}
	rel, err := filepath.Rel(f.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
