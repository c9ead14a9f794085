package objstream

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/streampdf/internal/bytesource"
	"github.com/coregx/streampdf/internal/values"
	"github.com/coregx/streampdf/internal/xref"
)

func legacyRecord(offset int64, gen int, inUse bool) string {
	typ := "f"
	if inUse {
		typ = "n"
	}
	off := strconv.FormatInt(offset, 10)
	for len(off) < 10 {
		off = "0" + off
	}
	g := strconv.Itoa(gen)
	for len(g) < 5 {
		g = "0" + g
	}
	return off + " " + g + " " + typ + " \n"
}

// buildObjStmPDF assembles a one-container object stream holding two
// compressed objects (5: the number 42, 7: the boolean true) and a
// legacy xref table locating it as object 10, returning the full byte
// buffer.
func buildObjStmPDF(t *testing.T) []byte {
	t.Helper()
	header := "5 0 7 3 " // 8 bytes: pairs (5,0) (7,3)
	body := "42 true"    // object 5 at rel 0 ("42 "), object 7 at rel 3 ("true")
	data := header + body

	var buf bytes.Buffer
	buf.WriteString("10 0 obj\n<< /Type /ObjStm /N 2 /First 8 /Length ")
	buf.WriteString(strconv.Itoa(len(data)))
	buf.WriteString(" >>\nstream\n")
	buf.WriteString(data)
	buf.WriteString("\nendstream\nendobj\n")

	xrefOffset := buf.Len()
	buf.WriteString("xref\n0 11\n")
	for i := 0; i < 10; i++ {
		if i == 0 {
			buf.WriteString(legacyRecord(0, 65535, false))
		} else {
			buf.WriteString(legacyRecord(0, 0, false))
		}
	}
	buf.WriteString(legacyRecord(0, 0, true))
	buf.WriteString("trailer\n<< /Size 11 /Root 1 0 R >>\n")
	buf.WriteString("startxref\n")
	buf.WriteString(strconv.Itoa(xrefOffset))
	buf.WriteString("\n%%EOF")
	return buf.Bytes()
}

func TestCache_GetResolvesCompressedObjectsFromContainer(t *testing.T) {
	data := buildObjStmPDF(t)
	src := bytesource.NewMemory(data)

	table, err := xref.Build(src)
	require.NoError(t, err)

	cache := New(src, table, nil)

	objSrc, id, err := cache.Get(10, 0)
	require.NoError(t, err)
	assert.Equal(t, values.ObjectID{Num: 5, Gen: 0}, id)
	content, _ := objSrc.ReadExact(int(objSrc.Size()))
	assert.Equal(t, "42 ", string(content))

	objSrc2, id2, err := cache.Get(10, 1)
	require.NoError(t, err)
	assert.Equal(t, values.ObjectID{Num: 7, Gen: 0}, id2)
	content2, _ := objSrc2.ReadExact(int(objSrc2.Size()))
	assert.Equal(t, "true", string(content2))
}

func TestCache_GetCachesContainerAcrossCalls(t *testing.T) {
	data := buildObjStmPDF(t)
	src := bytesource.NewMemory(data)
	table, err := xref.Build(src)
	require.NoError(t, err)

	cache := New(src, table, nil)
	_, _, err = cache.Get(10, 0)
	require.NoError(t, err)
	require.Contains(t, cache.containers, 10)

	// A second Get must not re-parse the object (would fail if it
	// re-seeks past an already-consumed source position incorrectly).
	_, _, err = cache.Get(10, 1)
	require.NoError(t, err)
}

func TestCache_GetUnknownContainerErrors(t *testing.T) {
	data := buildObjStmPDF(t)
	src := bytesource.NewMemory(data)
	table, err := xref.Build(src)
	require.NoError(t, err)

	cache := New(src, table, nil)
	_, _, err = cache.Get(999, 0)
	assert.Error(t, err)
}

func TestCache_GetIndexOutOfRangeErrors(t *testing.T) {
	data := buildObjStmPDF(t)
	src := bytesource.NewMemory(data)
	table, err := xref.Build(src)
	require.NoError(t, err)

	cache := New(src, table, nil)
	_, _, err = cache.Get(10, 5)
	assert.Error(t, err)
}
