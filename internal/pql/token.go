package pql

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNewline
	tokIdent  // possibly dotted: employees.employee_id
	tokNumber // integer or decimal literal, kept as text
	tokString // quoted literal, text holds the decoded value
	tokVar    // $name, text holds the name without the sigil
	tokPipe
	tokComma
	tokColon
	tokLBracket
	tokRBracket
	tokLParen
	tokRParen
	tokAssign // =
	tokEq     // ==
	tokNeq    // !=
	tokLt
	tokLe
	tokGt
	tokGe
	tokPlus
	tokMinus
	tokStar
	tokSlash
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokNewline:
		return "newline"
	case tokIdent:
		return "identifier"
	case tokNumber:
		return "number"
	case tokString:
		return "string"
	case tokVar:
		return "variable"
	case tokPipe:
		return "'|'"
	case tokComma:
		return "','"
	case tokColon:
		return "':'"
	case tokLBracket:
		return "'['"
	case tokRBracket:
		return "']'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokAssign:
		return "'='"
	case tokEq:
		return "'=='"
	case tokNeq:
		return "'!='"
	case tokLt:
		return "'<'"
	case tokLe:
		return "'<='"
	case tokGt:
		return "'>'"
	case tokGe:
		return "'>='"
	case tokPlus:
		return "'+'"
	case tokMinus:
		return "'-'"
	case tokStar:
		return "'*'"
	case tokSlash:
		return "'/'"
	}
	return "unknown token"
}

type token struct {
	kind tokenKind
	text string
	pos  Position
}

// lex splits query source into tokens. Newlines are tokens at bracket depth
// zero and whitespace inside brackets, which is what lets stage lists span
// lines. Comments run from '#' to end of line.
func lex(src string) ([]token, error) {
	l := &lexer{src: src, line: 1, col: 1}
	var toks []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks, nil
		}
	}
}

type lexer struct {
	src   string
	off   int
	line  int
	col   int
	depth int // open brackets and parens
}

func (l *lexer) pos() Position { return Position{Line: l.line, Col: l.col} }

func (l *lexer) peek() byte {
	if l.off >= len(l.src) {
		return 0
	}
	return l.src[l.off]
}

func (l *lexer) peekAt(n int) byte {
	if l.off+n >= len(l.src) {
		return 0
	}
	return l.src[l.off+n]
}

func (l *lexer) advance() byte {
	c := l.src[l.off]
	l.off++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *lexer) next() (token, error) {
	for l.off < len(l.src) {
		c := l.peek()
		switch {
		case c == '#':
			for l.off < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		case c == '\n':
			pos := l.pos()
			l.advance()
			if l.depth == 0 {
				return token{kind: tokNewline, pos: pos}, nil
			}
		case c == ' ' || c == '\t' || c == '\r':
			l.advance()
		default:
			return l.scanToken()
		}
	}
	return token{kind: tokEOF, pos: l.pos()}, nil
}

func (l *lexer) scanToken() (token, error) {
	pos := l.pos()
	c := l.peek()

	switch {
	case isIdentStart(rune(c)) || c >= utf8.RuneSelf:
		return l.scanIdent(pos)
	case c >= '0' && c <= '9':
		return l.scanNumber(pos)
	case c == '\'' || c == '"':
		return l.scanString(pos)
	case c == '$':
		l.advance()
		if !isIdentStart(rune(l.peek())) {
			return token{}, parseErrorf(pos, "expected variable name after '$'")
		}
		start := l.off
		for l.off < len(l.src) && isIdentPart(rune(l.peek())) {
			l.advance()
		}
		return token{kind: tokVar, text: l.src[start:l.off], pos: pos}, nil
	}

	l.advance()
	switch c {
	case '|':
		return token{kind: tokPipe, pos: pos}, nil
	case ',':
		return token{kind: tokComma, pos: pos}, nil
	case ':':
		return token{kind: tokColon, pos: pos}, nil
	case '[':
		l.depth++
		return token{kind: tokLBracket, pos: pos}, nil
	case ']':
		if l.depth > 0 {
			l.depth--
		}
		return token{kind: tokRBracket, pos: pos}, nil
	case '(':
		l.depth++
		return token{kind: tokLParen, pos: pos}, nil
	case ')':
		if l.depth > 0 {
			l.depth--
		}
		return token{kind: tokRParen, pos: pos}, nil
	case '=':
		if l.peek() == '=' {
			l.advance()
			return token{kind: tokEq, pos: pos}, nil
		}
		return token{kind: tokAssign, pos: pos}, nil
	case '!':
		if l.peek() == '=' {
			l.advance()
			return token{kind: tokNeq, pos: pos}, nil
		}
		return token{}, parseErrorf(pos, "unexpected character '!'")
	case '<':
		if l.peek() == '=' {
			l.advance()
			return token{kind: tokLe, pos: pos}, nil
		}
		return token{kind: tokLt, pos: pos}, nil
	case '>':
		if l.peek() == '=' {
			l.advance()
			return token{kind: tokGe, pos: pos}, nil
		}
		return token{kind: tokGt, pos: pos}, nil
	case '+':
		return token{kind: tokPlus, pos: pos}, nil
	case '-':
		return token{kind: tokMinus, pos: pos}, nil
	case '*':
		return token{kind: tokStar, pos: pos}, nil
	case '/':
		return token{kind: tokSlash, pos: pos}, nil
	}
	return token{}, parseErrorf(pos, "unexpected character %q", string(rune(c)))
}

// scanIdent consumes an identifier, following '.' into further segments so
// qualified names like rituals.source lex as one token.
func (l *lexer) scanIdent(pos Position) (token, error) {
	start := l.off
	for {
		for l.off < len(l.src) {
			r, size := utf8.DecodeRuneInString(l.src[l.off:])
			if !isIdentPart(r) {
				break
			}
			for i := 0; i < size; i++ {
				l.advance()
			}
		}
		if l.peek() == '.' && isIdentStart(rune(l.peekAt(1))) {
			l.advance()
			continue
		}
		break
	}
	return token{kind: tokIdent, text: l.src[start:l.off], pos: pos}, nil
}

func (l *lexer) scanNumber(pos Position) (token, error) {
	start := l.off
	for l.off < len(l.src) && isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		l.advance()
		for l.off < len(l.src) && isDigit(l.peek()) {
			l.advance()
		}
	}
	return token{kind: tokNumber, text: l.src[start:l.off], pos: pos}, nil
}

func (l *lexer) scanString(pos Position) (token, error) {
	quote := l.advance()
	var b strings.Builder
	for l.off < len(l.src) {
		c := l.advance()
		switch c {
		case quote:
			return token{kind: tokString, text: b.String(), pos: pos}, nil
		case '\\':
			if l.off >= len(l.src) {
				return token{}, parseErrorf(pos, "unterminated string literal")
			}
			esc := l.advance()
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\', '\'', '"':
				b.WriteByte(esc)
			default:
				return token{}, parseErrorf(pos, "unknown escape '\\%s'", string(rune(esc)))
			}
		case '\n':
			return token{}, parseErrorf(pos, "unterminated string literal")
		default:
			b.WriteByte(c)
		}
	}
	return token{}, parseErrorf(pos, "unterminated string literal")
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
