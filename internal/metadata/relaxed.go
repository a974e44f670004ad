package metadata

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const maxRelaxedDepth = 128

// decodeRelaxed parses the near-JSON literal syntax some backends emit when
// they print a dict instead of serialising it: single-quoted strings,
// True/False/None, tuples and trailing commas. The result uses the same Go
// types as encoding/json (map[string]any, []any, string, float64, bool, nil).
func decodeRelaxed(text string) (any, error) {
	p := &relaxedParser{src: text}
	p.skipSpace()
	v, err := p.value(0)
	if err != nil {
		return nil, fmt.Errorf("relaxed: %w", err)
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("relaxed: unexpected %q at offset %d", p.src[p.pos], p.pos)
	}
	return v, nil
}

type relaxedParser struct {
	src string
	pos int
}

func (p *relaxedParser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *relaxedParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *relaxedParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *relaxedParser) value(depth int) (any, error) {
	if depth > maxRelaxedDepth {
		return nil, p.errorf("nesting too deep")
	}
	switch c := p.peek(); {
	case c == 0:
		return nil, p.errorf("unexpected end of input")
	case c == '{':
		return p.object(depth)
	case c == '[':
		return p.sequence(depth, ']')
	case c == '(':
		return p.tuple(depth)
	case c == '\'' || c == '"':
		return p.stringValue()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	default:
		return p.keyword()
	}
}

func (p *relaxedParser) object(depth int) (any, error) {
	p.pos++ // {
	obj := make(map[string]any)
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			return obj, nil
		}
		if c := p.peek(); c != '\'' && c != '"' {
			return nil, p.errorf("object keys must be strings")
		}
		key, err := p.stringValue()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ':' {
			return nil, p.errorf("expected ':' after object key")
		}
		p.pos++
		p.skipSpace()
		v, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		obj[key] = v
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return obj, nil
		default:
			return nil, p.errorf("expected ',' or '}' in object")
		}
	}
}

func (p *relaxedParser) sequence(depth int, closer byte) (any, error) {
	items, _, err := p.items(depth, closer)
	return items, err
}

// tuple follows literal rules: "(1)" is just 1, "(1,)" and "(1, 2)" are lists.
func (p *relaxedParser) tuple(depth int) (any, error) {
	items, sawComma, err := p.items(depth, ')')
	if err != nil {
		return nil, err
	}
	if len(items) == 1 && !sawComma {
		return items[0], nil
	}
	return items, nil
}

func (p *relaxedParser) items(depth int, closer byte) ([]any, bool, error) {
	p.pos++ // opener
	items := make([]any, 0)
	sawComma := false
	for {
		p.skipSpace()
		if p.peek() == closer {
			p.pos++
			return items, sawComma, nil
		}
		v, err := p.value(depth + 1)
		if err != nil {
			return nil, false, err
		}
		items = append(items, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			sawComma = true
			p.pos++
		case closer:
			p.pos++
			return items, sawComma, nil
		default:
			return nil, false, p.errorf("expected ',' or %q", closer)
		}
	}
}

// stringValue reads one or more adjacent string literals and joins them.
func (p *relaxedParser) stringValue() (string, error) {
	var b strings.Builder
	for {
		s, err := p.stringLiteral()
		if err != nil {
			return "", err
		}
		b.WriteString(s)
		save := p.pos
		p.skipSpace()
		if c := p.peek(); c != '\'' && c != '"' {
			p.pos = save
			return b.String(), nil
		}
	}
}

func (p *relaxedParser) stringLiteral() (string, error) {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for {
		if p.pos >= len(p.src) {
			return "", p.errorf("unterminated string")
		}
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\n':
			return "", p.errorf("newline in string")
		case c == '\\':
			if err := p.escape(&b); err != nil {
				return "", err
			}
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			b.WriteRune(r)
			p.pos += size
		}
	}
}

func (p *relaxedParser) escape(b *strings.Builder) error {
	p.pos++ // backslash
	if p.pos >= len(p.src) {
		return p.errorf("unterminated escape")
	}
	c := p.src[p.pos]
	p.pos++
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case '\\', '\'', '"', '/':
		b.WriteByte(c)
	case 'x':
		return p.hexEscape(b, 2)
	case 'u':
		return p.hexEscape(b, 4)
	default:
		return p.errorf("unknown escape \\%c", c)
	}
	return nil
}

func (p *relaxedParser) hexEscape(b *strings.Builder, digits int) error {
	if p.pos+digits > len(p.src) {
		return p.errorf("short hex escape")
	}
	n, err := strconv.ParseUint(p.src[p.pos:p.pos+digits], 16, 32)
	if err != nil {
		return p.errorf("bad hex escape")
	}
	p.pos += digits
	b.WriteRune(rune(n))
	return nil
}

func (p *relaxedParser) number() (any, error) {
	start := p.pos
	if c := p.peek(); c == '-' || c == '+' {
		p.pos++
	}
	digits := 0
	for isDigit(p.peek()) {
		p.pos++
		digits++
	}
	if p.peek() == '.' {
		p.pos++
		for isDigit(p.peek()) {
			p.pos++
			digits++
		}
	}
	if digits == 0 {
		return nil, p.errorf("malformed number")
	}
	if c := p.peek(); c == 'e' || c == 'E' {
		p.pos++
		if c := p.peek(); c == '-' || c == '+' {
			p.pos++
		}
		if !isDigit(p.peek()) {
			return nil, p.errorf("malformed exponent")
		}
		for isDigit(p.peek()) {
			p.pos++
		}
	}
	f, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return nil, p.errorf("malformed number %q", p.src[start:p.pos])
	}
	return f, nil
}

var relaxedKeywords = map[string]any{
	"True":  true,
	"False": false,
	"None":  nil,
	"true":  true,
	"false": false,
	"null":  nil,
}

func (p *relaxedParser) keyword() (any, error) {
	start := p.pos
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	word := p.src[start:p.pos]
	v, ok := relaxedKeywords[word]
	if !ok {
		p.pos = start
		return nil, p.errorf("unexpected token %q", word)
	}
	return v, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentByte(c byte) bool {
	return c == '_' || isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
