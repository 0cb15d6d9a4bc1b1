package mi

import (
	"errors"
	"strings"
)

var (
	errNotQuoted       = errors.New("c string must be enclosed in double quotes")
	errTrailingEscape  = errors.New("c string ends inside an escape sequence")
	errUnescapedQuote  = errors.New("unescaped quote inside c string")
	errInvalidHexDigit = errors.New("invalid hex escape")
)

// Unquote decodes a double-quoted C string as written by GDB.
//
// Besides the usual single-character escapes GDB writes \e for ESC and
// octal escapes for every non-printable byte, so multi-byte UTF-8 text
// arrives as a run of octal escapes that is reassembled byte by byte.
func Unquote(s string) (string, error) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", errNotQuoted
	}
	s = s[1 : len(s)-1]
	if strings.IndexByte(s, '\\') < 0 {
		if strings.IndexByte(s, '"') >= 0 {
			return "", errUnescapedQuote
		}
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' {
			return "", errUnescapedQuote
		}
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", errTrailingEscape
		}
		switch c = s[i]; c {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'e':
			b.WriteByte(0x1b)
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case 'x':
			n, used, err := hexEscape(s[i+1:])
			if err != nil {
				return "", err
			}
			b.WriteByte(n)
			i += used
		case '0', '1', '2', '3', '4', '5', '6', '7':
			n := int(c - '0')
			for k := 0; k < 2 && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '7'; k++ {
				i++
				n = n*8 + int(s[i]-'0')
			}
			b.WriteByte(byte(n))
		default:
			// \\, \", \' and unknown escapes stand for the character itself.
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func hexEscape(s string) (byte, int, error) {
	var n, used int
	for used < 2 && used < len(s) {
		d := unhex(s[used])
		if d < 0 {
			break
		}
		n = n*16 + d
		used++
	}
	if used == 0 {
		return 0, 0, errInvalidHexDigit
	}
	return byte(n), used, nil
}

func unhex(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	default:
		return -1
	}
}

// Quote encodes s as a C string suitable for an MI command argument.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
