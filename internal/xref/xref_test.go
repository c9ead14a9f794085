package xref

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/streampdf/internal/bytesource"
	"github.com/coregx/streampdf/internal/values"
)

func legacyRecord(offset int64, gen int, inUse bool) string {
	typ := "f"
	if inUse {
		typ = "n"
	}
	return strconv_pad10(offset) + " " + strconv_pad5(gen) + " " + typ + " \n"
}

func strconv_pad10(v int64) string {
	s := strconv.FormatInt(v, 10)
	for len(s) < 10 {
		s = "0" + s
	}
	return s
}

func strconv_pad5(v int) string {
	s := strconv.Itoa(v)
	for len(s) < 5 {
		s = "0" + s
	}
	return s
}

func buildLegacyPDF(t *testing.T, root string) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("1 0 obj\n<< /Type /Catalog >>\nendobj\n")
	xrefOffset := int64(buf.Len())
	buf.WriteString("xref\n0 2\n")
	buf.WriteString(legacyRecord(0, 65535, false))
	buf.WriteString(legacyRecord(9, 0, true))
	buf.WriteString("trailer\n<< /Size 2 /Root " + root + " 0 R >>\n")
	buf.WriteString("startxref\n")
	buf.WriteString(strconv.FormatInt(xrefOffset, 10))
	buf.WriteString("\n%%EOF")
	return buf.Bytes()
}

func TestBuild_SingleLegacyTable(t *testing.T) {
	data := buildLegacyPDF(t, "1")
	src := bytesource.NewMemory(data)

	table, err := Build(src)
	require.NoError(t, err)

	e, ok := table.Get(values.ObjectID{Num: 1, Gen: 0})
	require.True(t, ok)
	assert.Equal(t, InUse, e.Kind)
	assert.Equal(t, int64(9), e.Offset)

	free, ok := table.Get(values.ObjectID{Num: 0, Gen: 65535})
	require.True(t, ok)
	assert.Equal(t, Free, free.Kind)

	assert.Equal(t, values.VReference(values.ObjectID{Num: 1, Gen: 0}), table.Trailer().Get("Root"))
	assert.Equal(t, 2, table.Len())
}

func TestBuild_MissingStartXRefErrors(t *testing.T) {
	src := bytesource.NewMemory([]byte("%PDF-1.4\nno xref info here"))
	_, err := Build(src)
	assert.Error(t, err)
}

func TestBuild_PrevChainNewestWins(t *testing.T) {
	// Older section: object 1 generation 0, offset 9, /Size 2.
	older := buildLegacyPDF(t, "1")

	// Newer section appended after the older bytes, with its own xref
	// table claiming object 1 under a NEW generation (1) at a different
	// offset, and pointing /Prev back at the older section's xref
	// offset. An incremental update like this must leave both
	// generations of object 1 independently reachable: (1,1) through
	// the new section, and (1,0) through the inherited /Prev chain.
	olderXrefOffset := bytes.Index(older, []byte("xref\n"))
	require.GreaterOrEqual(t, olderXrefOffset, 0)

	var buf bytes.Buffer
	buf.Write(older)
	newSectionStart := buf.Len()
	buf.WriteString("1 1 obj\n<< /Type /Catalog >>\nendobj\n")
	newXrefOffset := buf.Len()
	buf.WriteString("xref\n0 2\n")
	buf.WriteString(legacyRecord(0, 65535, false))
	buf.WriteString(legacyRecord(int64(newSectionStart), 1, true))
	buf.WriteString("trailer\n<< /Size 2 /Root 1 1 R /Prev " + strconv.Itoa(olderXrefOffset) + " >>\n")
	buf.WriteString("startxref\n")
	buf.WriteString(strconv.Itoa(newXrefOffset))
	buf.WriteString("\n%%EOF")

	src := bytesource.NewMemory(buf.Bytes())
	table, err := Build(src)
	require.NoError(t, err)

	newer, ok := table.Get(values.ObjectID{Num: 1, Gen: 1})
	require.True(t, ok)
	assert.Equal(t, int64(newSectionStart), newer.Offset, "newest section's entry for (1,1) is reachable")

	older1, ok := table.Get(values.ObjectID{Num: 1, Gen: 0})
	require.True(t, ok, "older generation (1,0) must survive the incremental update")
	assert.Equal(t, int64(9), older1.Offset, "older generation's own offset is unchanged")
}

func TestReadWidths_MissingWErrors(t *testing.T) {
	dict := values.NewVDictionary()
	_, err := readWidths(dict)
	assert.Error(t, err)
}

func TestReadIndexRanges_DefaultsToZeroSize(t *testing.T) {
	dict := values.NewVDictionary()
	dict.Set("Size", values.VNumber(values.Int(5)))
	ranges, err := readIndexRanges(dict)
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	assert.Equal(t, indexRange{start: 0, count: 5}, ranges[0])
}

func TestDecodeRecords_TypeOneTwoZero(t *testing.T) {
	// widths [1,2,1]: type(1) + offset-or-streamnum(2) + gen-or-index(1)
	widths := [3]int{1, 2, 1}
	decoded := []byte{
		1, 0, 100, 0, // obj 0: in-use, offset 100, gen 0
		0, 0, 0, 0, // obj 1: free, gen 0
		2, 0, 5, 3, // obj 2: compressed, stream 5, index 3
	}
	table := &Table{entries: make(map[values.ObjectID]Entry), trailer: values.NewVDictionary()}
	require.NoError(t, decodeRecords(decoded, widths, []indexRange{{start: 0, count: 3}}, table))

	e0, _ := table.Get(values.ObjectID{Num: 0, Gen: 0})
	assert.Equal(t, Entry{Kind: InUse, Offset: 100, Gen: 0}, e0)

	e1, _ := table.Get(values.ObjectID{Num: 1, Gen: 0})
	assert.Equal(t, Free, e1.Kind)

	e2, _ := table.Get(values.ObjectID{Num: 2, Gen: 0})
	assert.Equal(t, Entry{Kind: Compressed, StreamNum: 5, Index: 3}, e2)
}

func TestDecodeRecords_SkipsAlreadyClaimedObjects(t *testing.T) {
	widths := [3]int{1, 2, 1}
	decoded := []byte{1, 0, 200, 0}
	claimed := values.ObjectID{Num: 0, Gen: 0}
	table := &Table{entries: map[values.ObjectID]Entry{claimed: {Kind: InUse, Offset: 1}}, trailer: values.NewVDictionary()}
	require.NoError(t, decodeRecords(decoded, widths, []indexRange{{start: 0, count: 1}}, table))

	e, _ := table.Get(claimed)
	assert.Equal(t, int64(1), e.Offset, "pre-existing newer entry is not overwritten")
}

func TestDecodeRecords_IndexRangeExceedsDecodedLength(t *testing.T) {
	widths := [3]int{1, 2, 1}
	decoded := []byte{1, 0, 100, 0} // one record, but the range below asks for two
	table := &Table{entries: make(map[values.ObjectID]Entry), trailer: values.NewVDictionary()}
	err := decodeRecords(decoded, widths, []indexRange{{start: 0, count: 2}}, table)
	assert.Error(t, err)
}
