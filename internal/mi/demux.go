package mi

import (
	"bytes"
	"regexp"
	"slices"
	"strconv"
)

// filler replaces the bytes of a matched record so later passes cannot
// match it again. Newlines are kept so line anchors stay valid. Whether a
// line was consumed is tracked separately: inferior output may contain
// filler bytes itself.
const filler = 0

// recordPattern pairs a record shape with its decoder.
type recordPattern struct {
	kind   Kind
	re     *regexp.Regexp
	decode func(kind Kind, line []byte, sub []int) Record
}

// The submatch layout for async and result records is token, class, payload.
// For stream records it is the quoted payload.
var patterns = []recordPattern{
	{KindResult, regexp.MustCompile(`(?m)^([0-9]*)\^(done|running|connected|error|exit)(?:,([^\r\n]*))?\r?\n`), decodeClassed},
	{KindExec, regexp.MustCompile(`(?m)^([0-9]*)\*([a-zA-Z0-9_-]+)(?:,([^\r\n]*))?\r?\n`), decodeClassed},
	{KindStatus, regexp.MustCompile(`(?m)^([0-9]*)\+([a-zA-Z0-9_-]+)(?:,([^\r\n]*))?\r?\n`), decodeClassed},
	{KindNotify, regexp.MustCompile(`(?m)^([0-9]*)=([a-zA-Z0-9_-]+)(?:,([^\r\n]*))?\r?\n`), decodeClassed},
	{KindConsole, regexp.MustCompile(`(?m)^~([^\r\n]*)\r?\n`), decodeStream},
	{KindTarget, regexp.MustCompile(`(?m)^@([^\r\n]*)\r?\n`), decodeStream},
	{KindLog, regexp.MustCompile(`(?m)^&([^\r\n]*)\r?\n`), decodeStream},
	{KindPrompt, regexp.MustCompile(`(?m)^\(gdb\) *\r?\n`), decodePrompt},
}

func decodeClassed(kind Kind, buf []byte, sub []int) Record {
	rec := Record{Kind: kind, Class: string(buf[sub[4]:sub[5]])}
	if sub[3] > sub[2] {
		if tok, err := strconv.ParseUint(string(buf[sub[2]:sub[3]]), 10, 64); err == nil {
			rec.Token = Token(tok)
			rec.HasToken = true
		}
	}
	if sub[6] >= 0 {
		rec.Payload = string(buf[sub[6]:sub[7]])
	}
	return rec
}

func decodeStream(kind Kind, buf []byte, sub []int) Record {
	return Record{Kind: kind, Payload: string(buf[sub[2]:sub[3]])}
}

func decodePrompt(kind Kind, _ []byte, _ []int) Record {
	return Record{Kind: kind}
}

// Demuxer turns an append-only byte stream into ordered records.
//
// Demuxer is not safe for concurrent use.
type Demuxer struct {
	buf  []byte
	base int64
}

// NewDemuxer creates an empty demultiplexer.
func NewDemuxer() *Demuxer {
	return &Demuxer{}
}

// Buffered returns the number of bytes held back waiting for a newline.
func (d *Demuxer) Buffered() int {
	return len(d.buf)
}

// Offset returns the absolute stream offset of the first buffered byte.
func (d *Demuxer) Offset() int64 {
	return d.base
}

// Feed appends chunk to the buffer and returns every complete record in
// original stream order. Incomplete trailing content is kept for the next
// call.
func (d *Demuxer) Feed(chunk []byte) []Record {
	d.buf = append(d.buf, chunk...)

	end := bytes.LastIndexByte(d.buf, '\n') + 1
	if end == 0 {
		return nil
	}
	window := d.buf[:end]

	var records []Record
	// Every pattern is anchored at a line start and ends at its newline,
	// so a match is identified by the offset of the line it consumed.
	consumed := make(map[int]bool)
	for _, p := range patterns {
		for _, sub := range p.re.FindAllSubmatchIndex(window, -1) {
			rec := p.decode(p.kind, window, sub)
			rec.Offset = d.base + int64(sub[0])
			records = append(records, rec)
			blank(window[sub[0]:sub[1]])
			consumed[sub[0]] = true
		}
	}
	records = append(records, d.leftovers(window, consumed)...)

	slices.SortStableFunc(records, func(a, b Record) int {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		default:
			return 0
		}
	})

	d.buf = append(d.buf[:0], d.buf[end:]...)
	d.base += int64(end)
	return records
}

// leftovers emits every complete line no pattern claimed.
func (d *Demuxer) leftovers(window []byte, consumed map[int]bool) []Record {
	var records []Record
	start := 0
	for start < len(window) {
		nl := bytes.IndexByte(window[start:], '\n') + start
		line := window[start:nl]
		if !consumed[start] {
			text := bytes.TrimSuffix(line, []byte{'\r'})
			records = append(records, Record{
				Kind:    KindUnrecognized,
				Payload: string(text),
				Offset:  d.base + int64(start),
			})
		}
		start = nl + 1
	}
	return records
}

// Reset discards buffered bytes, for example after the process restarted.
func (d *Demuxer) Reset() {
	d.base += int64(len(d.buf))
	d.buf = d.buf[:0]
}

func blank(span []byte) {
	for i, c := range span {
		if c != '\n' {
			span[i] = filler
		}
	}
}
