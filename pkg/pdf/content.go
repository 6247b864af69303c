package pdf

import (
	"strconv"
	"strings"
)

// kerning below this (thousandths of an em) inside a TJ array reads as a space
const tjSpaceThreshold = -180

// ContentText reads the string operands of text-showing operators from a
// page content stream. Hex strings are skipped: they are usually CID glyph
// codes that need the font's CMap to decode.
func ContentText(content []byte) string {
	s := &scanner{src: content}
	s.run()
	s.flush()
	return strings.Join(s.lines, "\n")
}

type scanner struct {
	src     []byte
	pos     int
	cur     strings.Builder
	lines   []string
	inArray bool
	nums    []float64
}

func (s *scanner) flush() {
	line := strings.Join(strings.Fields(s.cur.String()), " ")
	if line != "" {
		s.lines = append(s.lines, line)
	}
	s.cur.Reset()
}

func (s *scanner) run() {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '%':
			s.skipLine()
		case c == '(':
			s.pos++
			s.cur.WriteString(s.literal())
		case c == '<':
			if s.pos+1 < len(s.src) && s.src[s.pos+1] == '<' {
				s.pos += 2
			} else {
				s.skipHex()
			}
		case c == '[':
			s.inArray = true
			s.pos++
		case c == ']':
			s.inArray = false
			s.pos++
		case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
			s.number()
		case isLetter(c) || c == '\'' || c == '"' || c == '*':
			s.operator()
		default:
			s.pos++
		}
	}
}

func (s *scanner) skipLine() {
	for s.pos < len(s.src) && s.src[s.pos] != '\n' && s.src[s.pos] != '\r' {
		s.pos++
	}
}

func (s *scanner) skipHex() {
	for s.pos < len(s.src) && s.src[s.pos] != '>' {
		s.pos++
	}
	s.pos++
}

func (s *scanner) number() {
	start := s.pos
	s.pos++
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c != '.' && (c < '0' || c > '9') {
			break
		}
		s.pos++
	}
	v, err := strconv.ParseFloat(string(s.src[start:s.pos]), 64)
	if err != nil {
		return
	}
	if s.inArray && v <= tjSpaceThreshold {
		s.cur.WriteByte(' ')
	}
	s.nums = append(s.nums, v)
	if len(s.nums) > 6 {
		s.nums = s.nums[len(s.nums)-6:]
	}
}

func (s *scanner) operator() {
	start := s.pos
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if !isLetter(c) && c != '*' && c != '\'' && c != '"' && (c < '0' || c > '9') {
			break
		}
		s.pos++
	}
	op := string(s.src[start:s.pos])

	switch op {
	case "ET", "T*", "'", "\"":
		s.flush()
	case "Td", "TD":
		if n := len(s.nums); n > 0 && s.nums[n-1] != 0 {
			s.flush()
		} else {
			s.cur.WriteByte(' ')
		}
	case "Tm":
		s.flush()
	case "BI":
		s.skipInlineImage()
	}
	s.nums = s.nums[:0]
}

func (s *scanner) skipInlineImage() {
	end := strings.Index(string(s.src[s.pos:]), "EI")
	if end < 0 {
		s.pos = len(s.src)
		return
	}
	s.pos += end + 2
}

// literal reads a (string) body, the opening paren already consumed.
func (s *scanner) literal() string {
	var b strings.Builder
	depth := 1
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		s.pos++
		switch c {
		case '\\':
			if s.pos >= len(s.src) {
				return b.String()
			}
			e := s.src[s.pos]
			s.pos++
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'b', 'f':
			case '\r', '\n':
				// line continuation
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for k := 0; k < 2 && s.pos < len(s.src) && s.src[s.pos] >= '0' && s.src[s.pos] <= '7'; k++ {
						v = v*8 + int(s.src[s.pos]-'0')
						s.pos++
					}
					b.WriteByte(byte(v))
				} else {
					b.WriteByte(e)
				}
			}
		case '(':
			depth++
			b.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				return b.String()
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
