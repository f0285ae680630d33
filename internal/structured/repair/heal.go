package repair

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
)

const maxDepth = 512

var (
	errEmpty    = errors.New("empty input")
	errTooDeep  = errors.New("nesting too deep")
	errTrailing = errors.New("content after top-level value")
)

// Heal rewrites near-miss JSON into canonical JSON. It is a lenient single-pass scanner: it
// accepts what language models commonly emit (single quotes, bare keys, trailing or missing
// commas, comments, Python/JS literals, truncation) and fails on anything it cannot place.
func Heal(text string) (string, error) {
	h := &healer{in: []rune(text)}
	h.skipSpace()
	if h.eof() {
		return "", errEmpty
	}
	if err := h.value(); err != nil {
		return "", err
	}
	h.skipSpace()
	if !h.eof() {
		return "", fmt.Errorf("%w at offset %d", errTrailing, h.pos)
	}
	return h.out.String(), nil
}

type healer struct {
	in    []rune
	pos   int
	depth int
	out   bytes.Buffer
}

func (h *healer) eof() bool { return h.pos >= len(h.in) }

func (h *healer) peek() rune { return h.in[h.pos] }

func (h *healer) peekAt(i int) (rune, bool) {
	if i >= len(h.in) {
		return 0, false
	}
	return h.in[i], true
}

func (h *healer) skipSpace() {
	for !h.eof() {
		c := h.peek()
		if unicode.IsSpace(c) || c == '\ufeff' {
			h.pos++
			continue
		}
		if c == '/' {
			next, ok := h.peekAt(h.pos + 1)
			if ok && next == '/' {
				for !h.eof() && h.peek() != '\n' {
					h.pos++
				}
				continue
			}
			if ok && next == '*' {
				h.pos += 2
				for !h.eof() {
					if h.peek() == '*' {
						if n, ok := h.peekAt(h.pos + 1); ok && n == '/' {
							h.pos += 2
							break
						}
					}
					h.pos++
				}
				continue
			}
		}
		return
	}
}

func (h *healer) value() error {
	h.skipSpace()
	if h.eof() {
		// "key": at end of a truncated completion
		h.out.WriteString("null")
		return nil
	}
	c := h.peek()
	switch {
	case c == '{':
		return h.object()
	case c == '[':
		return h.array()
	case c == '"' || c == '\'':
		s := h.str(c)
		return h.writeString(s)
	case c == '-' || c == '+':
		if next, ok := h.peekAt(h.pos + 1); ok && unicode.IsLetter(next) {
			h.pos++
			return h.word()
		}
		return h.number()
	case c == '.' || (c >= '0' && c <= '9'):
		return h.number()
	case unicode.IsLetter(c) || c == '_':
		return h.word()
	default:
		return fmt.Errorf("unexpected %q at offset %d", c, h.pos)
	}
}

func (h *healer) enter() error {
	h.depth++
	if h.depth > maxDepth {
		return errTooDeep
	}
	return nil
}

func (h *healer) object() error {
	if err := h.enter(); err != nil {
		return err
	}
	h.pos++
	h.out.WriteByte('{')
	first := true
	for {
		h.skipSpace()
		if h.eof() {
			break
		}
		c := h.peek()
		if c == '}' {
			h.pos++
			break
		}
		if c == ']' {
			break
		}
		if c == ',' {
			h.pos++
			continue
		}

		key, err := h.key()
		if err != nil {
			return err
		}
		if !first {
			h.out.WriteByte(',')
		}
		first = false
		if err := h.writeString(key); err != nil {
			return err
		}
		h.out.WriteByte(':')

		h.skipSpace()
		if !h.eof() && (h.peek() == ':' || h.peek() == '=') {
			h.pos++
			h.skipSpace()
		}
		if h.eof() || strings.ContainsRune(",}]", h.peek()) {
			h.out.WriteString("null")
			continue
		}
		if err := h.value(); err != nil {
			return err
		}
	}
	h.out.WriteByte('}')
	h.depth--
	return nil
}

func (h *healer) array() error {
	if err := h.enter(); err != nil {
		return err
	}
	h.pos++
	h.out.WriteByte('[')
	first := true
	for {
		h.skipSpace()
		if h.eof() {
			break
		}
		c := h.peek()
		if c == ']' {
			h.pos++
			break
		}
		if c == '}' {
			break
		}
		if c == ',' {
			h.pos++
			continue
		}
		if !first {
			h.out.WriteByte(',')
		}
		first = false
		if err := h.value(); err != nil {
			return err
		}
	}
	h.out.WriteByte(']')
	h.depth--
	return nil
}

func (h *healer) key() (string, error) {
	c := h.peek()
	if c == '"' || c == '\'' {
		return h.str(c), nil
	}
	if !isIdentRune(c) {
		return "", fmt.Errorf("unexpected %q where an object key belongs at offset %d", c, h.pos)
	}
	start := h.pos
	for !h.eof() && isIdentRune(h.peek()) {
		h.pos++
	}
	return string(h.in[start:h.pos]), nil
}

func isIdentRune(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' || c == '$' || c == '-'
}

// str reads a string opened by quote. A quote character only terminates the string when the
// next non-blank rune could legally follow a string; otherwise it is kept as a literal. An
// unterminated string is closed at end of input.
func (h *healer) str(quote rune) string {
	h.pos++
	var sb strings.Builder
	for !h.eof() {
		c := h.peek()
		switch {
		case c == '\\':
			h.escape(&sb)
		case c == quote:
			h.pos++
			if h.closesString() {
				return sb.String()
			}
			sb.WriteRune(c)
		default:
			sb.WriteRune(c)
			h.pos++
		}
	}
	return sb.String()
}

func (h *healer) closesString() bool {
	i := h.pos
	for i < len(h.in) && (h.in[i] == ' ' || h.in[i] == '\t') {
		i++
	}
	if i >= len(h.in) {
		return true
	}
	switch h.in[i] {
	case ':', ',', '}', ']', '\n', '\r':
		return true
	case '/':
		next, ok := h.peekAt(i + 1)
		return ok && (next == '/' || next == '*')
	}
	return false
}

func (h *healer) escape(sb *strings.Builder) {
	next, ok := h.peekAt(h.pos + 1)
	if !ok {
		h.pos++
		return
	}
	switch next {
	case '"', '\\', '/', '\'':
		sb.WriteRune(next)
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 't':
		sb.WriteByte('\t')
	case 'u':
		if r, width, ok := h.unicodeEscape(h.pos); ok {
			sb.WriteRune(r)
			h.pos += width
			return
		}
		sb.WriteString(`\u`)
	default:
		// \d, \s and friends from regexes and Windows paths stay literal
		sb.WriteRune('\\')
		sb.WriteRune(next)
	}
	h.pos += 2
}

// unicodeEscape decodes \uXXXX at i, joining a following low surrogate when present.
func (h *healer) unicodeEscape(i int) (rune, int, bool) {
	r, ok := h.hex4(i + 2)
	if !ok {
		return 0, 0, false
	}
	if utf16.IsSurrogate(r) {
		if a, ok := h.peekAt(i + 6); ok && a == '\\' {
			if b, ok := h.peekAt(i + 7); ok && b == 'u' {
				if lo, ok := h.hex4(i + 8); ok {
					if joined := utf16.DecodeRune(r, lo); joined != unicode.ReplacementChar {
						return joined, 12, true
					}
				}
			}
		}
		return unicode.ReplacementChar, 6, true
	}
	return r, 6, true
}

func (h *healer) hex4(i int) (rune, bool) {
	if i+4 > len(h.in) {
		return 0, false
	}
	n, err := strconv.ParseUint(string(h.in[i:i+4]), 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(n), true
}

func (h *healer) number() error {
	start := h.pos
	for !h.eof() && strings.ContainsRune("0123456789+-.eE", h.peek()) {
		h.pos++
	}
	lit, err := normalizeNumber(string(h.in[start:h.pos]))
	if err != nil {
		return fmt.Errorf("%w at offset %d", err, start)
	}
	h.out.WriteString(lit)
	return nil
}

// normalizeNumber turns loose numerals (+1, .5, 5., 007, 1e) into JSON numbers.
func normalizeNumber(s string) (string, error) {
	raw := s
	neg := false
	switch {
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	}

	mant, exp, hasExp := s, "", false
	if i := strings.IndexAny(s, "eE"); i != -1 {
		mant, exp, hasExp = s[:i], s[i+1:], true
	}
	intPart, frac, _ := strings.Cut(mant, ".")
	if intPart == "" && frac == "" {
		return "", fmt.Errorf("bad number %q", raw)
	}
	if !allDigits(intPart) || !allDigits(frac) {
		return "", fmt.Errorf("bad number %q", raw)
	}

	intPart = strings.TrimLeft(intPart, "0")
	if intPart == "" {
		intPart = "0"
	}
	out := intPart
	if frac != "" {
		out += "." + frac
	}
	if hasExp {
		sign := ""
		if strings.HasPrefix(exp, "+") || strings.HasPrefix(exp, "-") {
			sign, exp = exp[:1], exp[1:]
		}
		if !allDigits(exp) {
			return "", fmt.Errorf("bad number %q", raw)
		}
		if exp != "" {
			out += "e" + sign + exp
		}
	}
	if neg {
		out = "-" + out
	}
	if !json.Valid([]byte(out)) {
		return "", fmt.Errorf("bad number %q", raw)
	}
	return out, nil
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (h *healer) word() error {
	start := h.pos
	for !h.eof() && (unicode.IsLetter(h.peek()) || unicode.IsDigit(h.peek()) || h.peek() == '_') {
		h.pos++
	}
	w := string(h.in[start:h.pos])
	switch w {
	case "true", "True", "TRUE":
		h.out.WriteString("true")
	case "false", "False", "FALSE":
		h.out.WriteString("false")
	case "null", "Null", "NULL", "None", "nil", "undefined", "NaN", "Infinity":
		h.out.WriteString("null")
	default:
		return fmt.Errorf("unexpected word %q at offset %d", w, start)
	}
	return nil
}

func (h *healer) writeString(s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	h.out.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
