package tokenizer

import (
	"fmt"
	"strings"
	"unicode"
)

// ExtractBraceBlocks pulls execute{}, subject to{}, and tuple Name{}
// constructs out of src by balanced-brace matching that ignores braces
// inside double-quoted strings (spec.md §4.3 steps 2-3). `subject to { X }`
// is replaced inline by its body X; execute and tuple blocks are removed
// entirely and returned as Blocks for the driver/dispatcher to handle
// separately.
func ExtractBraceBlocks(src string) (string, []Block, error) {
	s := newRuneScanner(src)
	var out strings.Builder
	var blocks []Block
	line := 1
	var prev rune = '\n'

	for !s.eof() {
		r := s.peek()

		if r == '"' {
			if err := s.skipString(&out); err != nil {
				return "", nil, err
			}
			prev = '"'
			continue
		}

		if r == '\n' {
			line++
		}

		if isWordStart(prev) == false && matchesKeyword(s, "execute") {
			body, bodyLine, consumedLines, label, err := consumeExecuteLike(s, line, true)
			if err != nil {
				return "", nil, err
			}
			blocks = append(blocks, Block{Kind: BlockExecute, Name: label, Body: body, Line: bodyLine})
			out.WriteString(strings.Repeat("\n", consumedLines))
			line += consumedLines
			prev = '\n'
			continue
		}

		if isWordStart(prev) == false && matchesKeyword(s, "subject") {
			wrapperStart := s.pos
			save := *s
			s.pos += len("subject")
			skipInlineSpace(s)
			if matchesKeyword(s, "to") {
				s.pos += len("to")
				skipInlineSpace(s)
				if s.peek() == '{' {
					prefixLines := countNewlines(string(s.src[wrapperStart:s.pos]))
					body, _, err := consumeBalancedBraceBody(s)
					if err != nil {
						return "", nil, err
					}
					out.WriteString(strings.Repeat("\n", prefixLines))
					out.WriteString(body)
					line += prefixLines + countNewlines(body)
					if countNewlines(body) == 0 {
						prev = '}'
					} else {
						prev = '\n'
					}
					continue
				}
			}
			*s = save
		}

		if isWordStart(prev) == false && matchesKeyword(s, "tuple") {
			body, bodyLine, consumedLines, name, err := consumeExecuteLike(s, line, false)
			if err != nil {
				return "", nil, err
			}
			blocks = append(blocks, Block{Kind: BlockTupleSchema, Name: name, Body: body, Line: bodyLine})
			out.WriteString(strings.Repeat("\n", consumedLines))
			line += consumedLines
			prev = '\n'
			continue
		}

		out.WriteRune(r)
		prev = r
		s.pos++
	}

	return out.String(), blocks, nil
}

// matchesKeyword reports whether the literal keyword occurs at the
// scanner's current position and is followed by a non-identifier rune
// (a word boundary), without consuming anything.
func matchesKeyword(s *runeScanner, word string) bool {
	if !s.hasPrefix(word) {
		return false
	}
	after := s.peekAt(len([]rune(word)))
	return !isIdentRune(after)
}

func isWordStart(prev rune) bool {
	return isIdentRune(prev)
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func skipInlineSpace(s *runeScanner) {
	for !s.eof() && (s.peek() == ' ' || s.peek() == '\t' || s.peek() == '\n' || s.peek() == '\r') {
		s.pos++
	}
}

// consumeExecuteLike consumes `KEYWORD [IDENT] { body }`, used for both
// `execute { ... }` and `tuple Name { ... }`. labelOptional controls whether a
// missing identifier is tolerated (execute's label is optional; tuple's
// name is required).
func consumeExecuteLike(s *runeScanner, startLine int, labelOptional bool) (body string, bodyLine int, consumedLines int, name string, err error) {
	start := s.pos
	// consume the keyword itself
	for isIdentRune(s.peek()) {
		s.pos++
	}
	skipInlineSpace(s)

	if isIdentRune(s.peek()) {
		identStart := s.pos
		for isIdentRune(s.peek()) {
			s.pos++
		}
		name = string(s.src[identStart:s.pos])
		skipInlineSpace(s)
	} else if !labelOptional {
		return "", 0, 0, "", fmt.Errorf("%w: expected name after keyword at line %d", ErrUnbalancedBraces, startLine)
	}

	if s.peek() != '{' {
		return "", 0, 0, "", fmt.Errorf("%w: expected '{' at line %d", ErrUnbalancedBraces, startLine)
	}

	body, _, err = consumeBalancedBraceBody(s)
	if err != nil {
		return "", 0, 0, "", err
	}

	consumedLines = countNewlines(string(s.src[start:s.pos]))
	bodyLine = startLine

	return body, bodyLine, consumedLines, name, nil
}

// consumeBalancedBraceBody consumes a `{ ... }` span starting at the
// scanner's current '{' and returns its interior (exclusive of the
// braces), counting nested braces and ignoring any inside quoted strings.
func consumeBalancedBraceBody(s *runeScanner) (string, int, error) {
	if s.peek() != '{' {
		return "", 0, fmt.Errorf("%w: expected '{'", ErrUnbalancedBraces)
	}
	s.pos++ // consume '{'

	depth := 1
	bodyStart := s.pos

	for !s.eof() {
		r := s.peek()
		if r == '"' {
			var discard strings.Builder
			if err := s.skipString(&discard); err != nil {
				return "", 0, err
			}
			continue
		}
		if r == '{' {
			depth++
		} else if r == '}' {
			depth--
			if depth == 0 {
				body := string(s.src[bodyStart:s.pos])
				s.pos++ // consume '}'
				return body, countNewlines(body), nil
			}
		}
		s.pos++
	}

	return "", 0, fmt.Errorf("%w: unterminated block starting at offset %d", ErrUnbalancedBraces, bodyStart)
}
