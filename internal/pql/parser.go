package pql

import "strconv"

// Parse lexes and parses one query source into a Pipeline.
func Parse(src string) (*Pipeline, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.parsePipeline()
}

type parser struct {
	toks []token
	i    int
}

func (p *parser) cur() token  { return p.toks[p.i] }
func (p *parser) next() token { t := p.toks[p.i]; p.i++; return t }

func (p *parser) at(k tokenKind) bool { return p.cur().kind == k }

func (p *parser) atIdent(text string) bool {
	return p.cur().kind == tokIdent && p.cur().text == text
}

func (p *parser) expect(k tokenKind) (token, error) {
	if !p.at(k) {
		return token{}, parseErrorf(p.cur().pos, "expected %s, found %s", k, p.cur().kind)
	}
	return p.next(), nil
}

// skipSeps consumes any run of stage separators and reports whether at least
// one was consumed.
func (p *parser) skipSeps() bool {
	seen := false
	for p.at(tokNewline) || p.at(tokPipe) {
		p.next()
		seen = true
	}
	return seen
}

func (p *parser) parsePipeline() (*Pipeline, error) {
	pipe := &Pipeline{}
	p.skipSeps()

	if p.atIdent("prql") {
		p.next()
		if err := p.parseHeader(pipe); err != nil {
			return nil, err
		}
		if !p.skipSeps() && !p.at(tokEOF) {
			return nil, parseErrorf(p.cur().pos, "expected newline after prql header")
		}
	}

	for !p.at(tokEOF) {
		stage, err := p.parseStage()
		if err != nil {
			return nil, err
		}
		pipe.Stages = append(pipe.Stages, stage)
		if !p.skipSeps() && !p.at(tokEOF) {
			return nil, parseErrorf(p.cur().pos, "expected '|' or newline between stages, found %s", p.cur().kind)
		}
	}

	if len(pipe.Stages) == 0 {
		return nil, parseErrorf(Position{Line: 1, Col: 1}, "empty query")
	}
	return pipe, nil
}

func (p *parser) parseHeader(pipe *Pipeline) error {
	if !p.atIdent("dialect") {
		return nil
	}
	p.next()
	if _, err := p.expect(tokColon); err != nil {
		return err
	}
	name, err := p.expect(tokIdent)
	if err != nil {
		return err
	}
	pipe.Dialect = name.text
	return nil
}

func (p *parser) parseStage() (Stage, error) {
	kw, err := p.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	switch kw.text {
	case "from":
		table, err := p.expect(tokIdent)
		if err != nil {
			return nil, err
		}
		return &FromStage{Pos: kw.pos, Table: table.text}, nil
	case "filter":
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &FilterStage{Pos: kw.pos, Cond: cond}, nil
	case "select":
		exprs, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		return &SelectStage{Pos: kw.pos, Exprs: exprs}, nil
	case "derive":
		assigns, err := p.parseAssignList()
		if err != nil {
			return nil, err
		}
		return &DeriveStage{Pos: kw.pos, Assigns: assigns}, nil
	case "join":
		return p.parseJoin(kw.pos)
	case "sort":
		keys, err := p.parseSortKeys()
		if err != nil {
			return nil, err
		}
		return &SortStage{Pos: kw.pos, Keys: keys}, nil
	case "take":
		return p.parseTake(kw.pos)
	}
	return nil, parseErrorf(kw.pos, "unknown stage %q", kw.text)
}

func (p *parser) parseJoin(pos Position) (Stage, error) {
	stage := &JoinStage{Pos: pos, Side: JoinInner}

	if p.atIdent("side") && p.toks[p.i+1].kind == tokColon {
		p.next()
		p.next()
		side, err := p.expect(tokIdent)
		if err != nil {
			return nil, err
		}
		stage.Side = JoinSide(side.text)
	}

	table, err := p.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	stage.Table = table.text

	if _, err := p.expect(tokLBracket); err != nil {
		return nil, err
	}
	if p.at(tokEq) {
		p.next()
		col, err := p.expect(tokIdent)
		if err != nil {
			return nil, err
		}
		stage.On = JoinCond{Using: col.text}
	} else {
		on, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stage.On = JoinCond{On: on}
	}
	if _, err := p.expect(tokRBracket); err != nil {
		return nil, err
	}
	return stage, nil
}

func (p *parser) parseTake(pos Position) (Stage, error) {
	num, err := p.expect(tokNumber)
	if err != nil {
		return nil, err
	}
	n, err := strconv.ParseInt(num.text, 10, 64)
	if err != nil {
		return nil, parseErrorf(num.pos, "take expects an integer, found %q", num.text)
	}
	return &TakeStage{Pos: pos, Count: n}, nil
}

// parseExprList parses either a bracketed, comma-separated list or a single
// expression.
func (p *parser) parseExprList() ([]Expr, error) {
	if !p.at(tokLBracket) {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return []Expr{e}, nil
	}
	p.next()
	var exprs []Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		if p.at(tokComma) {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(tokRBracket); err != nil {
		return nil, err
	}
	return exprs, nil
}

func (p *parser) parseAssignList() ([]Assign, error) {
	if !p.at(tokLBracket) {
		a, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return []Assign{a}, nil
	}
	p.next()
	var assigns []Assign
	for {
		a, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		assigns = append(assigns, a)
		if p.at(tokComma) {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(tokRBracket); err != nil {
		return nil, err
	}
	return assigns, nil
}

func (p *parser) parseAssign() (Assign, error) {
	name, err := p.expect(tokIdent)
	if err != nil {
		return Assign{}, err
	}
	if _, err := p.expect(tokAssign); err != nil {
		return Assign{}, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return Assign{}, err
	}
	return Assign{Name: name.text, Value: value}, nil
}

func (p *parser) parseSortKeys() ([]SortKey, error) {
	bracketed := p.at(tokLBracket)
	if bracketed {
		p.next()
	}
	var keys []SortKey
	for {
		key, err := p.parseSortKey()
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
		if p.at(tokComma) {
			p.next()
			continue
		}
		break
	}
	if bracketed {
		if _, err := p.expect(tokRBracket); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func (p *parser) parseSortKey() (SortKey, error) {
	desc := false
	switch {
	case p.at(tokMinus):
		p.next()
		desc = true
	case p.at(tokPlus):
		p.next()
	}
	col, err := p.expect(tokIdent)
	if err != nil {
		return SortKey{}, err
	}
	return SortKey{Column: col.text, Desc: desc}, nil
}

// Expression grammar, loosest to tightest:
//
//	comparison := additive (cmpOp additive)*
//	additive   := multiplicative (('+'|'-') multiplicative)*
//	multiplicative := unary (('*'|'/') unary)*
//	unary      := '-' unary | primary
//	primary    := ident | number | string | var | '(' expr ')'
func (p *parser) parseExpr() (Expr, error) {
	return p.parseComparison()
}

var cmpOps = map[tokenKind]string{
	tokEq:  "==",
	tokNeq: "!=",
	tokLt:  "<",
	tokLe:  "<=",
	tokGt:  ">",
	tokGe:  ">=",
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := cmpOps[p.cur().kind]
		if !ok {
			return left, nil
		}
		pos := p.next().pos
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &Binary{Pos: pos, Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.at(tokPlus) || p.at(tokMinus) {
		op := "+"
		if p.at(tokMinus) {
			op = "-"
		}
		pos := p.next().pos
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &Binary{Pos: pos, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.at(tokStar) || p.at(tokSlash) {
		op := "*"
		if p.at(tokSlash) {
			op = "/"
		}
		pos := p.next().pos
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Pos: pos, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.at(tokMinus) {
		pos := p.next().pos
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Pos: pos, Op: "-", X: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.cur()
	switch tok.kind {
	case tokIdent:
		p.next()
		return &Ident{Pos: tok.pos, Name: tok.text}, nil
	case tokNumber:
		p.next()
		isFloat := false
		for i := 0; i < len(tok.text); i++ {
			if tok.text[i] == '.' {
				isFloat = true
				break
			}
		}
		return &NumberLit{Pos: tok.pos, Text: tok.text, IsFloat: isFloat}, nil
	case tokString:
		p.next()
		return &StringLit{Pos: tok.pos, Value: tok.text}, nil
	case tokVar:
		p.next()
		return &VarRef{Pos: tok.pos, Name: tok.text}, nil
	case tokLParen:
		p.next()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, parseErrorf(tok.pos, "expected expression, found %s", tok.kind)
}
