package heap

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotFormat selects the encoding used by EncodeSnapshot.
type SnapshotFormat uint8

const (
	SnapshotText SnapshotFormat = iota
	SnapshotMsgpack
	SnapshotCBOR
)

// ParseSnapshotFormat converts a string to SnapshotFormat.
func ParseSnapshotFormat(s string) (SnapshotFormat, error) {
	switch strings.ToLower(s) {
	case "text", "":
		return SnapshotText, nil
	case "msgpack", "mp":
		return SnapshotMsgpack, nil
	case "cbor":
		return SnapshotCBOR, nil
	default:
		return SnapshotText, fmt.Errorf("unsupported snapshot format %q (text|msgpack|cbor)", s)
	}
}

// BlockRecord describes one live block.
type BlockRecord struct {
	Handle  uint32 `msgpack:"handle" cbor:"handle"`
	AllocID uint64 `msgpack:"alloc_id" cbor:"alloc_id"`
	Tag     string `msgpack:"tag" cbor:"tag"`
	RC      int32  `msgpack:"rc" cbor:"rc"`
	Shared  bool   `msgpack:"shared" cbor:"shared"`
	Fields  int    `msgpack:"fields" cbor:"fields"`
	Refs    int    `msgpack:"refs" cbor:"refs"`
	Bytes   int    `msgpack:"bytes" cbor:"bytes"`
	Summary string `msgpack:"summary,omitempty" cbor:"summary,omitempty"`
}

// Snapshot is the heap state at one instant.
type Snapshot struct {
	Stats  Stats         `msgpack:"stats" cbor:"stats"`
	Blocks []BlockRecord `msgpack:"blocks" cbor:"blocks"`
}

// Snapshot collects every live block in handle order. It reads block
// payloads, so it must not run while other goroutines drop blocks.
func (h *Heap) Snapshot() Snapshot {
	snap := Snapshot{Stats: h.Stats()}
	h.table.each(func(b *Block) {
		if b.isFreed() {
			return
		}
		rec := BlockRecord{
			Handle:  uint32(b.handle),
			AllocID: b.allocID,
			Tag:     b.tag.String(),
			RC:      b.RefCount(),
			Shared:  b.IsShared(),
			Fields:  b.Scan(),
			Refs:    b.refFields(),
			Bytes:   b.Size(),
		}
		if describe := describerFor(b.tag); describe != nil {
			rec.Summary = describe(b)
		}
		snap.Blocks = append(snap.Blocks, rec)
	})
	return snap
}

func (r BlockRecord) line() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s(rc=%d", r.Tag, r.RC)
	if r.Shared {
		sb.WriteString(",shared")
	}
	fmt.Fprintf(&sb, ",fields=%d,refs=%d,bytes=%d)", r.Fields, r.Refs, r.Bytes)
	if r.Summary != "" {
		sb.WriteString(" ")
		sb.WriteString(r.Summary)
	}
	return sb.String()
}

// Dump renders live blocks as sorted lines, collapsing identical lines into
// one with a count suffix.
func (h *Heap) Dump() string {
	return dumpRecords(h.Snapshot().Blocks)
}

func dumpRecords(records []BlockRecord) string {
	if len(records) == 0 {
		return ""
	}
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = r.line()
	}
	sort.Strings(lines)

	var sb strings.Builder
	for i := 0; i < len(lines); {
		count := 1
		for i+count < len(lines) && lines[i+count] == lines[i] {
			count++
		}
		sb.WriteString(lines[i])
		if count > 1 {
			fmt.Fprintf(&sb, " count=%d", count)
		}
		sb.WriteString("\n")
		i += count
	}
	return sb.String()
}

// EncodeSnapshot writes snap to w in the given format.
func EncodeSnapshot(w io.Writer, snap Snapshot, format SnapshotFormat) error {
	switch format {
	case SnapshotText:
		st := snap.Stats
		if _, err := fmt.Fprintf(w, "live=%d bytes=%d allocs=%d frees=%d rc+=%d rc-=%d shared=%d\n",
			st.LiveBlocks, st.LiveBytes, st.Allocs, st.Frees, st.RCIncr, st.RCDecr, st.Promotions); err != nil {
			return err
		}
		_, err := io.WriteString(w, dumpRecords(snap.Blocks))
		return err
	case SnapshotMsgpack:
		return msgpack.NewEncoder(w).Encode(&snap)
	case SnapshotCBOR:
		return cbor.NewEncoder(w).Encode(&snap)
	default:
		return fmt.Errorf("unknown snapshot format %d", format)
	}
}

// DecodeSnapshot reads a snapshot written by EncodeSnapshot in a binary format.
func DecodeSnapshot(r io.Reader, format SnapshotFormat) (Snapshot, error) {
	var snap Snapshot
	var err error
	switch format {
	case SnapshotMsgpack:
		err = msgpack.NewDecoder(r).Decode(&snap)
	case SnapshotCBOR:
		err = cbor.NewDecoder(r).Decode(&snap)
	default:
		return Snapshot{}, fmt.Errorf("snapshot format %d cannot be decoded", format)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
