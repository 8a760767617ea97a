package watcher

import (
	"strconv"
	"time"
)

// Op is what happened to a file.
type Op uint8

const (
	// Create reports a file seen for the first time.
	Create Op = iota + 1
	// Write reports new content in a file already known.
	Write
	// Remove reports a file deleted or renamed away.
	Remove
)

var opNames = map[Op]string{Create: "create", Write: "write", Remove: "remove"}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "op(" + strconv.Itoa(int(op)) + ")"
}

// Event is one settled change. Size and ModTime are zero for Remove.
type Event struct {
	Op      Op
	Path    string
	Size    int64
	ModTime time.Time
}
