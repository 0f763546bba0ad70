package heap

import (
	"fmt"
	"sync"
)

// Tag identifies the shape of a block's payload.
type Tag uint16

const (
	TagInvalid Tag = iota
	// TagRecord is a generic constructor: all payload words are Boxes.
	TagRecord
	TagBigInt
	TagBytes
	TagString
	TagRef

	// TagUser is the first tag available to generated code.
	TagUser Tag = 256
)

// Describer renders a one-line summary of a live block for dumps.
type Describer func(b *Block) string

type tagInfo struct {
	name     string
	describe Describer
}

var (
	tagsMu sync.RWMutex
	tags   = map[Tag]tagInfo{
		TagInvalid: {name: "invalid"},
		TagRecord:  {name: "record"},
		TagBigInt:  {name: "bigint"},
		TagBytes:   {name: "bytes"},
		TagString:  {name: "string"},
		TagRef:     {name: "ref"},
	}
)

// RegisterTag names a tag and optionally installs a describer used by Dump.
// Packages owning a block shape call it from init.
func RegisterTag(tag Tag, name string, describe Describer) {
	tagsMu.Lock()
	defer tagsMu.Unlock()
	tags[tag] = tagInfo{name: name, describe: describe}
}

// String returns the registered tag name.
func (t Tag) String() string {
	tagsMu.RLock()
	info, ok := tags[t]
	tagsMu.RUnlock()
	if ok && info.name != "" {
		return info.name
	}
	if t >= TagUser {
		return fmt.Sprintf("user%d", t-TagUser)
	}
	return fmt.Sprintf("tag%d", t)
}

func describerFor(t Tag) Describer {
	tagsMu.RLock()
	defer tagsMu.RUnlock()
	return tags[t].describe
}
