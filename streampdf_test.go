package streampdf_test

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	streampdf "github.com/coregx/streampdf"
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

// buildSamplePDF assembles a minimal but complete document: a header, a
// Catalog/Pages/Page/Contents object chain, an Info dictionary, and a
// legacy cross-reference table plus trailer.
func buildSamplePDF(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	offsets := make(map[int]int64)

	buf.WriteString("%PDF-1.7\n")

	offsets[1] = int64(buf.Len())
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = int64(buf.Len())
	buf.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")

	offsets[3] = int64(buf.Len())
	buf.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /Contents 4 0 R >>\nendobj\n")

	offsets[4] = int64(buf.Len())
	content := "BT /F1 12 Tf (Hello) Tj ET"
	buf.WriteString("4 0 obj\n<< /Length " + strconv.Itoa(len(content)) + " >>\nstream\n" + content + "\nendstream\nendobj\n")

	offsets[5] = int64(buf.Len())
	buf.WriteString("5 0 obj\n<< /Title (Test Document) /Author (Gopher) >>\nendobj\n")

	xrefOffset := buf.Len()
	buf.WriteString("xref\n0 6\n")
	buf.WriteString(legacyRecord(0, 65535, false))
	for i := 1; i <= 5; i++ {
		buf.WriteString(legacyRecord(offsets[i], 0, true))
	}
	buf.WriteString("trailer\n<< /Size 6 /Root 1 0 R /Info 5 0 R >>\n")
	buf.WriteString("startxref\n")
	buf.WriteString(strconv.Itoa(xrefOffset))
	buf.WriteString("\n%%EOF")
	return buf.Bytes()
}

// collectingSink records every StartObject id it sees and concatenates
// each object's StreamContent bytes, enough to assert a full push
// traversal actually reached every object in the sample document.
type collectingSink struct {
	started []streampdf.ObjectID
	content map[streampdf.ObjectID][]byte
	current streampdf.ObjectID
}

func newCollectingSink() *collectingSink {
	return &collectingSink{content: make(map[streampdf.ObjectID][]byte)}
}

func (s *collectingSink) StartObject(id streampdf.ObjectID) error {
	s.started = append(s.started, id)
	s.current = id
	return nil
}
func (s *collectingSink) EndObject() error                   { return nil }
func (s *collectingSink) StartDictionary() error              { return nil }
func (s *collectingSink) Key(streampdf.Name) error            { return nil }
func (s *collectingSink) EndDictionary() error                { return nil }
func (s *collectingSink) StartArray() error                   { return nil }
func (s *collectingSink) EndArray() error                     { return nil }
func (s *collectingSink) Boolean(bool) error                  { return nil }
func (s *collectingSink) Number(streampdf.Number) error       { return nil }
func (s *collectingSink) StringValue([]byte) error            { return nil }
func (s *collectingSink) NameValue(streampdf.Name) error      { return nil }
func (s *collectingSink) Null() error                         { return nil }
func (s *collectingSink) Reference(streampdf.ObjectID) error  { return nil }
func (s *collectingSink) StartStream() error                  { return nil }
func (s *collectingSink) StreamContent(p []byte) error {
	s.content[s.current] = append(s.content[s.current], p...)
	return nil
}
func (s *collectingSink) EndStream() error { return nil }

func TestParser_Version(t *testing.T) {
	data := buildSamplePDF(t)
	p := streampdf.NewParser(newCollectingSink())
	require.NoError(t, p.Load(streampdf.NewByteSourceFromBytes(data)))
	version, ok := p.Version()
	require.True(t, ok)
	assert.Equal(t, "1.7", version)
}

func TestParser_PushTraversalReachesEveryObject(t *testing.T) {
	data := buildSamplePDF(t)
	sink := newCollectingSink()
	p := streampdf.NewParser(sink)

	require.NoError(t, p.Parse(streampdf.NewByteSourceFromBytes(data)))

	for num := 1; num <= 5; num++ {
		assert.Contains(t, sink.started, streampdf.ObjectID{Num: num, Gen: 0}, "object %d should be visited", num)
	}
	assert.Equal(t, "BT /F1 12 Tf (Hello) Tj ET", string(sink.content[streampdf.ObjectID{Num: 4, Gen: 0}]))
}

func TestParser_LoadThenParseObjectPullTraversal(t *testing.T) {
	data := buildSamplePDF(t)
	p := streampdf.NewParser(nil)

	require.NoError(t, p.Load(streampdf.NewByteSourceFromBytes(data)))

	catalogID, ok := p.CatalogID()
	require.True(t, ok)
	assert.Equal(t, streampdf.ObjectID{Num: 1, Gen: 0}, catalogID)

	sink := newCollectingSink()
	require.NoError(t, p.ParseObject(catalogID, sink))
	assert.Equal(t, []streampdf.ObjectID{catalogID}, sink.started)
}

func TestParser_DocumentInfo(t *testing.T) {
	data := buildSamplePDF(t)
	p := streampdf.NewParser(newCollectingSink())
	require.NoError(t, p.Load(streampdf.NewByteSourceFromBytes(data)))

	info, err := p.DocumentInfo()
	require.NoError(t, err)
	assert.Equal(t, "Test Document", info.Title)
	assert.Equal(t, "Gopher", info.Author)
	assert.False(t, info.Encrypted)
}

func TestParser_TrailerAndCrossReferenceTable(t *testing.T) {
	data := buildSamplePDF(t)
	p := streampdf.NewParser(nil)
	require.NoError(t, p.Load(streampdf.NewByteSourceFromBytes(data)))

	assert.Equal(t, streampdf.VNumber(streampdf.Int(6)), p.Trailer().Get("Size"))

	entry, ok := p.CrossReferenceTable().Get(streampdf.ObjectID{Num: 3, Gen: 0})
	require.True(t, ok)
	assert.Equal(t, xref.InUse, entry.Kind)
}
