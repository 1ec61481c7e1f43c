package testkit

import (
	"github.com/pkg/errors"

	"lumen/internal/source"
)

type tokKind uint8

const (
	tokEOF tokKind = iota
	tokIdent
	tokLifetime
	tokInt
	tokPunct
)

type tok struct {
	kind  tokKind
	text  string
	start uint32
	end   uint32
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentByte(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

// scan tokenizes a declaration string. Line comments and whitespace are
// skipped; `::` and `->` come out as single tokens.
func scan(src string, file source.FileID) ([]tok, error) {
	var out []tok
	i := 0
	push := func(kind tokKind, from, to int) {
		out = append(out, tok{kind: kind, text: src[from:to], start: uint32(from), end: uint32(to)})
	}
	for i < len(src) {
		b := src[i]
		switch {
		case b == ' ' || b == '\t' || b == '\n' || b == '\r':
			i++
		case b == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case isIdentStart(b):
			from := i
			for i < len(src) && isIdentByte(src[i]) {
				i++
			}
			push(tokIdent, from, i)
		case b >= '0' && b <= '9':
			from := i
			for i < len(src) && src[i] >= '0' && src[i] <= '9' {
				i++
			}
			push(tokInt, from, i)
		case b == '\'':
			from := i
			i++
			for i < len(src) && isIdentByte(src[i]) {
				i++
			}
			if i == from+1 {
				return nil, errors.Errorf("offset %d: lone quote", from)
			}
			push(tokLifetime, from, i)
		case b == ':' && i+1 < len(src) && src[i+1] == ':':
			push(tokPunct, i, i+2)
			i += 2
		case b == '-' && i+1 < len(src) && src[i+1] == '>':
			push(tokPunct, i, i+2)
			i += 2
		default:
			switch b {
			case '(', ')', '[', ']', '{', '}', '<', '>', ',', ';', ':', '+', '*', '&', '?', '=', '!':
				push(tokPunct, i, i+1)
				i++
			default:
				return nil, errors.Errorf("offset %d: unexpected byte %q", i, string(b))
			}
		}
	}
	out = append(out, tok{kind: tokEOF, start: uint32(len(src)), end: uint32(len(src))})
	return out, nil
}
