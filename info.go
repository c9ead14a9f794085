package streampdf

import (
	"bytes"

	"github.com/coregx/streampdf/internal/valuecapture"
)

// headerScanWindow bounds how far into the source the %PDF-N.M header
// marker is searched for.
const headerScanWindow = 1024

// Version reports the version string found in the %PDF-N.M header
// marker within the first 1024 bytes of the most recently loaded or
// parsed source. The header is informational only and is not validated
// by the core parser; a malformed or missing marker simply reports
// found=false rather than an error.
func (p *Parser) Version() (version string, found bool) {
	if p.src == nil {
		return "", false
	}
	n := headerScanWindow
	if size := p.src.Size(); size < int64(n) {
		n = int(size)
	}
	p.src.Seek(0)
	head, err := p.src.ReadExact(n)
	if err != nil {
		head = head[:0]
	}

	idx := bytes.Index(head, []byte("%PDF-"))
	if idx < 0 {
		return "", false
	}
	start := idx + len("%PDF-")
	end := start
	for end < len(head) && isVersionByte(head[end]) {
		end++
	}
	if end == start {
		return "", false
	}
	return string(head[start:end]), true
}

func isVersionByte(b byte) bool {
	return (b >= '0' && b <= '9') || b == '.'
}

// DocumentInfo is the read-only subset of the document information
// dictionary (trailer[/Info]) a caller commonly wants without writing a
// custom sink: title, author, and the other conventional /Info keys,
// plus whether the trailer declares the document encrypted. Resolving it
// does not materialize anything beyond this one dictionary.
type DocumentInfo struct {
	Title     string
	Author    string
	Subject   string
	Keywords  string
	Creator   string
	Producer  string
	Encrypted bool
}

// DocumentInfo resolves trailer[/Info] via a pull-mode ParseObject call
// and an /Encrypt presence check on the trailer. Available after Load.
func (p *Parser) DocumentInfo() (DocumentInfo, error) {
	var info DocumentInfo

	trailer := p.ctl.Trailer()
	if trailer == nil {
		return info, nil
	}
	info.Encrypted = trailer.Get("Encrypt") != nil

	ref, ok := trailer.Get("Info").(VReference)
	if !ok {
		return info, nil
	}

	capture := valuecapture.New()
	if err := p.ParseObject(ObjectID(ref), capture); err != nil {
		return info, err
	}
	dict, ok := capture.Result().(*VDictionary)
	if !ok {
		return info, nil
	}

	info.Title = stringField(dict, "Title")
	info.Author = stringField(dict, "Author")
	info.Subject = stringField(dict, "Subject")
	info.Keywords = stringField(dict, "Keywords")
	info.Creator = stringField(dict, "Creator")
	info.Producer = stringField(dict, "Producer")
	return info, nil
}

func stringField(dict *VDictionary, key Name) string {
	if s, ok := dict.Get(key).(VString); ok {
		return string(s)
	}
	return ""
}
