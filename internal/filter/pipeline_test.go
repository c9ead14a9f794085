package filter

import (
	"bytes"
	"compress/zlib"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/streampdf/internal/event"
	"github.com/coregx/streampdf/internal/values"
)

func dictWithFilter(names ...values.Name) *values.VDictionary {
	d := values.NewVDictionary()
	switch len(names) {
	case 0:
	case 1:
		d.Set("Filter", values.VName(names[0]))
	default:
		arr := make(values.VArray, len(names))
		for i, n := range names {
			arr[i] = values.VName(n)
		}
		d.Set("Filter", arr)
	}
	return d
}

func TestNew_NoFilterIsPassthrough(t *testing.T) {
	p, err := New(values.NewVDictionary())
	require.NoError(t, err)
	out, err := p.Decode([]byte("raw bytes"))
	require.NoError(t, err)
	assert.Equal(t, "raw bytes", string(out))
	assert.False(t, p.IsObjectStream())
}

func TestNew_AbbreviationsResolveToCanonicalNames(t *testing.T) {
	p, err := New(dictWithFilter("AHx"))
	require.NoError(t, err)
	require.Len(t, p.stages, 1)
	assert.Equal(t, "ASCIIHexDecode", p.stages[0].name)
}

func TestNew_UnknownFilterPassesThroughUnchanged(t *testing.T) {
	p, err := New(dictWithFilter("SomeFutureFilter"))
	require.NoError(t, err)
	out, err := p.Decode([]byte("xyz"))
	require.NoError(t, err)
	assert.Equal(t, "xyz", string(out))
}

func TestNew_ObjStmTypeSetsFlag(t *testing.T) {
	d := dictWithFilter()
	d.Set("Type", values.VName("ObjStm"))
	p, err := New(d)
	require.NoError(t, err)
	assert.True(t, p.IsObjectStream())
}

func TestNew_ChainRunsInOrder(t *testing.T) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write([]byte("4142")) // "AB" in ASCIIHex
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	hexEncoded := make([]byte, 0)
	for _, b := range buf.Bytes() {
		hexEncoded = append(hexEncoded, []byte(hexByte(b))...)
	}

	p, err := New(dictWithFilter("ASCIIHexDecode", "FlateDecode"))
	require.NoError(t, err)
	out, err := p.Decode(append(hexEncoded, '>'))
	require.NoError(t, err)
	assert.Equal(t, "4142", string(out))
}

func hexByte(b byte) string {
	const hex = "0123456789ABCDEF"
	return string([]byte{hex[b>>4], hex[b&0xf]})
}

// recordingSink collects every StreamContent chunk it receives.
type recordingSink struct {
	event.DocumentSink
	chunks [][]byte
}

func (s *recordingSink) StreamContent(p []byte) error {
	cp := append([]byte(nil), p...)
	s.chunks = append(s.chunks, cp)
	return nil
}

// fixedConsumeParser consumes exactly n bytes per Feed call, leaving the
// rest as carry so Dispatch's carry-over path is exercised.
type fixedConsumeParser struct {
	n       int
	fed     []byte
	closed  []byte
	didShut bool
}

func (p *fixedConsumeParser) Feed(chunk []byte) (int, error) {
	p.fed = append(p.fed, chunk...)
	if len(chunk) <= p.n {
		return len(chunk), nil
	}
	return p.n, nil
}

func (p *fixedConsumeParser) Close(remainder []byte) error {
	p.closed = append([]byte(nil), remainder...)
	p.didShut = true
	return nil
}

func TestDispatch_TeesToSinkAndSubParserWithCarryOver(t *testing.T) {
	decoded := bytes.Repeat([]byte("0123456789"), dispatchChunkSize/5) // > one chunk
	sink := &recordingSink{DocumentSink: event.Discard}
	sub := &fixedConsumeParser{n: 3}

	p := &Pipeline{}
	_, err := p.Dispatch(decoded, sink, sub)
	require.NoError(t, err)

	var gotSink []byte
	for _, c := range sink.chunks {
		gotSink = append(gotSink, c...)
	}
	assert.Equal(t, decoded, gotSink, "sink sees every decoded byte exactly once")

	var gotSub []byte
	gotSub = append(gotSub, sub.fed...)
	gotSub = append(gotSub, sub.closed...)
	// sub.fed double-counts carry bytes re-fed each call; assert the
	// remainder handed to Close is the true tail: two Feed calls each
	// consumed n bytes, so everything after the first 2n bytes is carried.
	assert.Equal(t, decoded[2*sub.n:], sub.closed)
	assert.True(t, sub.didShut)
}

func TestDispatch_EmptyDecodedStillInvokesSinkAndCloses(t *testing.T) {
	sink := &recordingSink{DocumentSink: event.Discard}
	sub := &fixedConsumeParser{n: 0}

	p := &Pipeline{}
	_, err := p.Dispatch(nil, sink, sub)
	require.NoError(t, err)

	require.Len(t, sink.chunks, 1)
	assert.Empty(t, sink.chunks[0])
	assert.True(t, sub.didShut)
}

func TestDispatch_ReturnsDecodedBytesWhenObjStm(t *testing.T) {
	p := &Pipeline{isObjStm: true}
	decoded := []byte("object stream payload")
	out, err := p.Dispatch(decoded, &recordingSink{DocumentSink: event.Discard}, nil)
	require.NoError(t, err)
	assert.Equal(t, decoded, out)
}

func TestDispatch_NonObjStmReturnsNilBytes(t *testing.T) {
	p := &Pipeline{}
	out, err := p.Dispatch([]byte("payload"), &recordingSink{DocumentSink: event.Discard}, nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}
