// Package objstream implements the ObjectStreamCache: lazy,
// per-container decoding of compressed-object streams (/Type /ObjStm),
// bounded to the containers the traversal actually
// references. A container's decoded body has no "N G obj ... endobj"
// framing of its own (PDF 1.5+ §7.5.7): it is just N consecutive direct
// values, located by the (object number, byte offset) pairs in its
// header.
//
// Grounded on the teacher's stream-decoding plumbing in
// internal/parser/reader.go, generalized to the two-level (container
// dictionary, then header-pair index) lookup object streams require.
package objstream

import (
	"github.com/coregx/streampdf/internal/bytesource"
	"github.com/coregx/streampdf/internal/event"
	"github.com/coregx/streampdf/internal/lexer"
	"github.com/coregx/streampdf/internal/perr"
	"github.com/coregx/streampdf/internal/values"
	"github.com/coregx/streampdf/internal/xref"
)

// pair is one (object number, relative offset) header entry.
type pair struct {
	num    int
	offset int64
}

// container is one decoded object stream, cached after first use.
type container struct {
	data  []byte
	first int64
	pairs []pair
}

// Cache decodes object-stream containers on demand and resolves
// individual compressed objects within them.
type Cache struct {
	src      *bytesource.ByteSource
	table    *xref.Table
	resolver lexer.LengthResolver

	containers map[int]*container
}

// New creates a Cache reading containers from src via table's
// cross-reference entries. resolver handles indirect /Length values a
// container's own stream dictionary (rare, but not forbidden) might
// carry.
func New(src *bytesource.ByteSource, table *xref.Table, resolver lexer.LengthResolver) *Cache {
	return &Cache{src: src, table: table, resolver: resolver, containers: make(map[int]*container)}
}

// Get returns a ByteSource positioned over the decoded bytes of the
// compressed object at (containerNum, index) in that container's header
// order, along with its object number (generation is always 0 for
// compressed objects).
func (c *Cache) Get(containerNum, index int) (*bytesource.ByteSource, values.ObjectID, error) {
	cont, err := c.load(containerNum)
	if err != nil {
		return nil, values.ObjectID{}, err
	}
	if index < 0 || index >= len(cont.pairs) {
		return nil, values.ObjectID{}, perr.NewMalformedf(cont.first, "object stream index %d out of range", index)
	}

	start := cont.first + cont.pairs[index].offset
	end := int64(len(cont.data))
	if index+1 < len(cont.pairs) {
		end = cont.first + cont.pairs[index+1].offset
	}
	if start < 0 || end > int64(len(cont.data)) || start > end {
		return nil, values.ObjectID{}, perr.NewMalformedf(cont.first, "object stream entry %d has invalid bounds", index)
	}

	slice := cont.data[start:end]
	id := values.ObjectID{Num: cont.pairs[index].num, Gen: 0}
	return bytesource.NewMemory(slice), id, nil
}

func (c *Cache) load(containerNum int) (*container, error) {
	if cont, ok := c.containers[containerNum]; ok {
		return cont, nil
	}

	// Object stream containers are always generation 0 (PDF 1.5+ §7.5.7).
	entry, ok := c.table.Get(values.ObjectID{Num: containerNum, Gen: 0})
	if !ok || entry.Kind != xref.InUse {
		return nil, perr.NewUnresolvedReference(containerNum, 0)
	}

	c.src.Seek(entry.Offset)
	lx := lexer.New(c.src)
	id, dict, objStmData, err := lx.ParseIndirectObject(event.Discard, c.resolver, nil)
	if err != nil {
		return nil, err
	}
	if id.Num != containerNum {
		return nil, perr.NewInconsistentObject(containerNum, id.Num)
	}
	if objStmData == nil {
		return nil, perr.NewMalformedf(entry.Offset, "object %d is not an object stream", containerNum)
	}

	n, ok := values.GetInteger(dict, "N")
	if !ok {
		return nil, perr.NewMalformedf(entry.Offset, "object stream missing /N")
	}
	first, ok := values.GetInteger(dict, "First")
	if !ok {
		return nil, perr.NewMalformedf(entry.Offset, "object stream missing /First")
	}

	pairs, err := readHeaderPairs(objStmData, int(n))
	if err != nil {
		return nil, err
	}

	cont := &container{data: objStmData, first: first, pairs: pairs}
	c.containers[containerNum] = cont
	return cont, nil
}

// readHeaderPairs reads the n leading "objNum offset" decimal pairs from
// an object stream's decoded body.
func readHeaderPairs(data []byte, n int) ([]pair, error) {
	src := bytesource.NewMemory(data)
	pairs := make([]pair, n)
	for i := 0; i < n; i++ {
		num, err := readHeaderInt(src)
		if err != nil {
			return nil, err
		}
		skipHeaderSpace(src)
		offset, err := readHeaderInt(src)
		if err != nil {
			return nil, err
		}
		skipHeaderSpace(src)
		pairs[i] = pair{num: int(num), offset: offset}
	}
	return pairs, nil
}

func skipHeaderSpace(src *bytesource.ByteSource) {
	for {
		b := src.Peek()
		switch b {
		case ' ', '\t', '\r', '\n', '\f', 0:
			src.ReadByte()
		default:
			return
		}
	}
}

func readHeaderInt(src *bytesource.ByteSource) (int64, error) {
	skipHeaderSpace(src)
	start := src.Position()
	var v int64
	n := 0
	for {
		b := src.Peek()
		if b < '0' || b > '9' {
			break
		}
		v = v*10 + int64(b-'0')
		n++
		src.ReadByte()
	}
	if n == 0 {
		return 0, perr.NewMalformedf(start, "expected integer in object stream header")
	}
	return v, nil
}
