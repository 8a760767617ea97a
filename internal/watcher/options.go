package watcher

import (
	"path/filepath"
	"strings"
	"time"
)

// defaultSettle is how long a file must stay unchanged before it is
// reported. Frontend builds write many files in quick bursts.
const defaultSettle = 100 * time.Millisecond

// scratchFiles are editor and OS droppings that never belong to a build.
var scratchFiles = []string{".DS_Store", "*.tmp", "*.swp", "*~", "4913"}

// Options configures a Watcher. The zero value is usable.
type Options struct {
	// Settle is the quiet period before a change is reported.
	Settle time.Duration
	// Ignore lists base-name globs to skip. nil selects the scratch file
	// defaults; an empty slice skips nothing by name.
	Ignore []string
	// Dotfiles, when set, reports paths with a dot-prefixed component.
	Dotfiles bool
}

func (o *Options) setDefaults() {
	if o.Settle <= 0 {
		o.Settle = defaultSettle
	}
	if o.Ignore == nil {
		o.Ignore = scratchFiles
	}
}

// ignored reports whether changes under path are dropped.
func (o *Options) ignored(path string) bool {
	if !o.Dotfiles {
		for _, part := range strings.Split(filepath.ToSlash(filepath.Clean(path)), "/") {
			if len(part) > 1 && part[0] == '.' && part != ".." {
				return true
			}
		}
	}

	base := filepath.Base(path)
	for _, glob := range o.Ignore {
		if ok, _ := filepath.Match(glob, base); ok {
			return true
		}
	}
	return false
}
