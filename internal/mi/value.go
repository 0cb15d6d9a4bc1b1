package mi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Result is a decoded MI payload.
//
// The key=value grammar is converted into a JSON document: tuples become
// objects, lists become arrays and constants become strings. Keys repeated
// at one nesting level become an array holding every value in order.
// Lists of results ([frame={...},frame={...}]) become arrays of the values.
type Result struct {
	doc []byte
}

// Decode parses a payload such as `value="5"` or
// `stack=[frame={level="0"},frame={level="1"}]`. An empty payload decodes
// to an empty object.
func Decode(payload string) (Result, error) {
	p := &parser{s: payload}
	fields, err := p.results(0)
	if err != nil {
		return Result{}, err
	}
	doc, err := encodeTuple(fields)
	if err != nil {
		return Result{}, err
	}
	return Result{doc: doc}, nil
}

// Get returns the value at a gjson path.
func (r Result) Get(path string) gjson.Result {
	return gjson.GetBytes(r.doc, path)
}

// List returns the value at path as a sequence. A single tuple is returned
// as a one-element sequence, a missing value as nil.
func (r Result) List(path string) []gjson.Result {
	return listOf(r.Get(path))
}

// JSON returns the document backing the result.
func (r Result) JSON() []byte {
	if r.doc == nil {
		return []byte("{}")
	}
	return r.doc
}

// String returns the document as text.
func (r Result) String() string {
	return string(r.JSON())
}

// listOf normalises a value that may be one tuple or several.
func listOf(v gjson.Result) []gjson.Result {
	switch {
	case !v.Exists():
		return nil
	case v.IsArray():
		return v.Array()
	default:
		return []gjson.Result{v}
	}
}

// ListOf is List for values already extracted from a Result.
func ListOf(v gjson.Result) []gjson.Result {
	return listOf(v)
}

type nodeKind int

const (
	constNode nodeKind = iota
	tupleNode
	listNode
)

type node struct {
	kind   nodeKind
	text   string
	fields []field
	items  []node
}

type field struct {
	name  string
	value node
}

type parser struct {
	s   string
	pos int
}

func (p *parser) peek() byte {
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) expect(c byte) error {
	if p.peek() != c {
		if p.pos >= len(p.s) {
			return p.errorf("expected %q, got end of input", c)
		}
		return p.errorf("expected %q, got %q", c, p.peek())
	}
	p.pos++
	return nil
}

// results parses result ("," result)* up to the end byte, which is 0 for
// end of input. A bare value following a result repeats the previous key,
// which is how GDB writes multi-location breakpoints: bkpt={...},{...}.
func (p *parser) results(end byte) ([]field, error) {
	var fields []field
	if p.peek() == end {
		return fields, nil
	}
	for {
		var f field
		switch c := p.peek(); {
		case isValueStart(c) && len(fields) > 0:
			f.name = fields[len(fields)-1].name
		default:
			name, err := p.variable()
			if err != nil {
				return nil, err
			}
			if err := p.expect('='); err != nil {
				return nil, err
			}
			f.name = name
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		f.value = v
		fields = append(fields, f)

		switch p.peek() {
		case ',':
			p.pos++
		case end:
			return fields, nil
		default:
			return nil, p.errorf("unexpected %q after value of %q", p.peek(), f.name)
		}
	}
}

func (p *parser) variable() (string, error) {
	start := p.pos
	for p.pos < len(p.s) && isNameByte(p.s[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		if p.pos >= len(p.s) {
			return "", p.errorf("expected name, got end of input")
		}
		return "", p.errorf("expected name, got %q", p.s[p.pos])
	}
	return p.s[start:p.pos], nil
}

func (p *parser) value() (node, error) {
	switch p.peek() {
	case '"':
		return p.constant()
	case '{':
		p.pos++
		fields, err := p.results('}')
		if err != nil {
			return node{}, err
		}
		if err := p.expect('}'); err != nil {
			return node{}, err
		}
		return node{kind: tupleNode, fields: fields}, nil
	case '[':
		return p.list()
	case 0:
		return node{}, p.errorf("expected value, got end of input")
	default:
		return node{}, p.errorf("expected value, got %q", p.peek())
	}
}

// list parses either a list of values or a list of results. Result names
// in a list are dropped: MI uses them to label homogeneous elements.
func (p *parser) list() (node, error) {
	p.pos++
	n := node{kind: listNode}
	if p.peek() == ']' {
		p.pos++
		return n, nil
	}
	for {
		if !isValueStart(p.peek()) {
			if _, err := p.variable(); err != nil {
				return node{}, err
			}
			if err := p.expect('='); err != nil {
				return node{}, err
			}
		}
		v, err := p.value()
		if err != nil {
			return node{}, err
		}
		n.items = append(n.items, v)

		switch p.peek() {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return n, nil
		default:
			return node{}, p.errorf("unexpected %q in list", p.peek())
		}
	}
}

func (p *parser) constant() (node, error) {
	start := p.pos
	p.pos++
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case '\\':
			p.pos += 2
			continue
		case '"':
			p.pos++
			text, err := Unquote(p.s[start:p.pos])
			if err != nil {
				return node{}, fmt.Errorf("offset %d: %w", start, err)
			}
			return node{kind: constNode, text: text}, nil
		}
		p.pos++
	}
	p.pos = start
	return node{}, p.errorf("unterminated string")
}

func isValueStart(c byte) bool {
	return c == '"' || c == '{' || c == '['
}

func isNameByte(c byte) bool {
	return c == '-' || c == '_' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func encode(n node) ([]byte, error) {
	switch n.kind {
	case constNode:
		return json.Marshal(n.text)
	case tupleNode:
		return encodeTuple(n.fields)
	default:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range n.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			child, err := encode(item)
			if err != nil {
				return nil, err
			}
			buf.Write(child)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	}
}

// encodeTuple builds an object field by field. The second occurrence of a
// key turns its value into an array, later occurrences append to it.
func encodeTuple(fields []field) ([]byte, error) {
	obj := []byte("{}")
	seen := make(map[string]int, len(fields))
	for _, f := range fields {
		child, err := encode(f.value)
		if err != nil {
			return nil, err
		}
		key := escapePath(f.name)
		switch seen[f.name] {
		case 0:
			obj, err = sjson.SetRawBytes(obj, key, child)
		case 1:
			prev := gjson.GetBytes(obj, key).Raw
			obj, err = sjson.SetRawBytes(obj, key, []byte("["+prev+","+string(child)+"]"))
		default:
			obj, err = sjson.SetRawBytes(obj, key+".-1", child)
		}
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", f.name, err)
		}
		seen[f.name]++
	}
	return obj, nil
}

var pathEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`*`, `\*`,
	`?`, `\?`,
	`|`, `\|`,
	`#`, `\#`,
	`@`, `\@`,
)

func escapePath(name string) string {
	return pathEscaper.Replace(name)
}
