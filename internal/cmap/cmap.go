// Package cmap implements a minimal bfchar/bfrange parser for
// /ToUnicode CMap streams (PDF 1.7 §9.10.3), exposed as an
// event.StreamParser for the FilterPipeline's terminal dispatcher.
//
// Grounded on the teacher's internal/extractor/cmap_parser.go
// (CMapParser/CMapTable, parseBfChar/parseBfRange, the token-string
// scanning in nextToken), adapted from a single-shot []byte parse into
// an accumulate-then-parse event.StreamParser: CMap streams are small
// enough in practice that buffering the whole decoded body in Feed and
// parsing once in Close is simpler than incremental tokenizing, unlike
// internal/contentstream's chunk-at-a-time design.
package cmap

import (
	"strconv"
	"strings"
)

// Table maps character codes to Unicode code points, as declared by a
// single /ToUnicode CMap stream.
type Table struct {
	name     string
	mappings map[uint32]rune
}

func newTable() *Table {
	return &Table{mappings: make(map[uint32]rune)}
}

// Name returns the CMap's declared /CMapName, or "" if none was found.
func (t *Table) Name() string { return t.name }

// Lookup returns the Unicode code point mapped to code, if any.
func (t *Table) Lookup(code uint32) (rune, bool) {
	r, ok := t.mappings[code]
	return r, ok
}

// Len returns the number of individual code mappings (range mappings
// are expanded at parse time, so a bfrange of N codes counts as N).
func (t *Table) Len() int { return len(t.mappings) }

func (t *Table) addMapping(code uint32, r rune) {
	t.mappings[code] = r
}

func (t *Table) addRangeMapping(low, high uint32, startUnicode rune) {
	if high < low {
		return
	}
	for code := low; code <= high; code++ {
		t.mappings[code] = startUnicode + rune(code-low)
		if code == high {
			break // guards against high == ^uint32(0) wrapping to 0
		}
	}
}

// Parser is an event.StreamParser that buffers a decoded ToUnicode CMap
// stream and parses it on Close.
type Parser struct {
	buf   []byte
	table *Table
}

// New creates a Parser. Table is nil until Close succeeds.
func New() *Parser {
	return &Parser{}
}

// Feed buffers chunk and always reports it fully consumed: CMap streams
// are parsed as a whole, not incrementally.
func (p *Parser) Feed(chunk []byte) (int, error) {
	p.buf = append(p.buf, chunk...)
	return len(chunk), nil
}

// Close appends remainder and parses the accumulated stream.
func (p *Parser) Close(remainder []byte) error {
	p.buf = append(p.buf, remainder...)
	table, err := parse(p.buf)
	if err != nil {
		return err
	}
	p.table = table
	return nil
}

// Table returns the parsed result, valid after Close returns nil.
func (p *Parser) Table() *Table { return p.table }

func parse(data []byte) (*Table, error) {
	table := newTable()
	s := &scanner{data: data}
	for {
		tok := s.next()
		if tok == "" {
			break
		}
		switch tok {
		case "/CMapName":
			if name := s.next(); strings.HasPrefix(name, "/") {
				table.name = strings.TrimPrefix(name, "/")
			}
		case "beginbfchar":
			parseBfChar(s, table)
		case "beginbfrange":
			parseBfRange(s, table)
		case "endcmap":
			return table, nil
		}
	}
	return table, nil
}

func parseBfChar(s *scanner, table *Table) {
	for {
		tok := s.next()
		if tok == "" || tok == "endbfchar" {
			return
		}
		if !strings.HasPrefix(tok, "<") {
			continue
		}
		src, ok := parseHex(tok)
		if !ok {
			continue
		}
		dst := s.next()
		unicode, ok := parseHex(dst)
		if !ok {
			continue
		}
		table.addMapping(src, unicode)
	}
}

func parseBfRange(s *scanner, table *Table) {
	for {
		tok := s.next()
		if tok == "" || tok == "endbfrange" {
			return
		}
		if !strings.HasPrefix(tok, "<") {
			continue
		}
		low, ok := parseHex(tok)
		if !ok {
			continue
		}
		highTok := s.next()
		high, ok := parseHex(highTok)
		if !ok {
			continue
		}
		dstTok := s.next()
		if strings.HasPrefix(dstTok, "[") {
			// Array-of-destinations form maps each source code
			// individually; not needed to exercise the sink contract.
			continue
		}
		start, ok := parseHex(dstTok)
		if !ok {
			continue
		}
		table.addRangeMapping(low, high, start)
	}
}

func parseHex(tok string) (uint32, bool) {
	tok = strings.TrimPrefix(tok, "<")
	tok = strings.TrimSuffix(tok, ">")
	if tok == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(tok, 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// scanner is a plain-text tokenizer over the CMap's PostScript-like
// wrapper syntax: hex strings, arrays, literal strings, and bare words
// are each returned whole.
type scanner struct {
	data []byte
	pos  int
}

func (s *scanner) next() string {
	for s.pos < len(s.data) && isSpace(s.data[s.pos]) {
		s.pos++
	}
	if s.pos >= len(s.data) {
		return ""
	}
	start := s.pos
	switch s.data[s.pos] {
	case '<':
		s.pos++
		for s.pos < len(s.data) && s.data[s.pos] != '>' {
			s.pos++
		}
		if s.pos < len(s.data) {
			s.pos++
		}
		return string(s.data[start:s.pos])
	case '[':
		depth := 1
		s.pos++
		for s.pos < len(s.data) && depth > 0 {
			switch s.data[s.pos] {
			case '[':
				depth++
			case ']':
				depth--
			}
			s.pos++
		}
		return string(s.data[start:s.pos])
	case '(':
		depth := 1
		s.pos++
		for s.pos < len(s.data) && depth > 0 {
			switch s.data[s.pos] {
			case '\\':
				s.pos += 2
				continue
			case '(':
				depth++
			case ')':
				depth--
			}
			s.pos++
		}
		return string(s.data[start:s.pos])
	}
	if s.data[s.pos] == '/' {
		s.pos++
	}
	for s.pos < len(s.data) && !isSpace(s.data[s.pos]) && !isBoundary(s.data[s.pos]) {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', 0, '\f':
		return true
	}
	return false
}

func isBoundary(b byte) bool {
	switch b {
	case '<', '>', '[', ']':
		return true
	}
	return false
}
