// Package parser implements the recursive-descent parser of spec.md §4.2:
// bounded backtracking via Weak/Strict failures, precedence climbing for
// the four binary-operator levels, and the identifier-led statement
// disambiguation rule.
//
// The overall token-walk shape is grounded on the teacher's
// compiler/compiler.go (a single linear walk over a token slice building an
// internal form); the backtracking discipline itself — attempt/lookahead/
// optional over a saved cursor rather than a cloned iterator, since Go
// slices don't need cloning to checkpoint — is grounded on
// original_source/src/parse.rs's Weak/Strict distinction.
package parser

import (
	"github.com/skx/animationled-compiler/ast"
	"github.com/skx/animationled-compiler/token"
)

// Parser holds the token stream and the current read cursor.
type Parser struct {
	tokens []token.Token
	pos    int
}

// New builds a Parser over an already-lexed token slice.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse consumes the whole token stream and returns the Program AST, or
// the first (Strict) error encountered.
func (p *Parser) Parse() (*ast.Program, error) {
	var procs []*ast.Procedure
	for !p.atEOF() {
		proc, err := p.parseProcedure()
		if err != nil {
			return nil, err
		}
		procs = append(procs, proc)
	}
	return &ast.Program{Procedures: procs}, nil
}

// ---- backtracking primitives ---------------------------------------------

func (p *Parser) checkpoint() int { return p.pos }

func (p *Parser) restore(mark int) { p.pos = mark }

// attempt evaluates rule from the current cursor; on a Weak failure it
// restores the cursor so the caller can try another alternative. A Strict
// failure, or success, leaves the cursor where the rule left it.
func attempt[T any](p *Parser, rule func() (T, *ParseError)) (T, *ParseError) {
	mark := p.checkpoint()
	v, err := rule()
	if err != nil && err.Weak {
		p.restore(mark)
	}
	return v, err
}

// lookahead evaluates rule but never commits, regardless of outcome.
func lookahead[T any](p *Parser, rule func() (T, *ParseError)) (T, *ParseError) {
	mark := p.checkpoint()
	v, err := rule()
	p.restore(mark)
	return v, err
}

// optional is attempt with a Weak failure converted into absence. A
// Strict failure still propagates, via the returned error.
func optional[T any](p *Parser, rule func() (T, *ParseError)) (T, bool, *ParseError) {
	v, err := attempt(p, rule)
	if err == nil {
		return v, true, nil
	}
	if err.Weak {
		var zero T
		return zero, false, nil
	}
	var zero T
	return zero, false, err
}

// ---- token-stream helpers --------------------------------------------------

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(offset int) token.Token {
	idx := p.pos + offset
	if idx >= len(p.tokens) || idx < 0 {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[idx]
}

func (p *Parser) atEOF() bool {
	return p.peek().Kind == token.EOF
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) eofSpan() token.Span {
	if len(p.tokens) == 0 {
		return token.Span{}
	}
	last := p.tokens[len(p.tokens)-1]
	return last.Span
}

// expect consumes a token of the given kind, or raises a Strict
// MissingToken failure (the caller has already committed to this
// production by the time it calls expect).
func (p *Parser) expect(kind token.Kind) (token.Token, *ParseError) {
	tok := p.peek()
	if tok.Kind == token.EOF && kind != token.EOF {
		return token.Token{}, strict(UnexpectedEof, p.eofSpan(), "unexpected end of input, expected %s", kind)
	}
	if tok.Kind != kind {
		return token.Token{}, strict(MissingToken, tok.Span, "expected %s, found %s", kind, tok.Kind)
	}
	return p.advance(), nil
}

// expectIdent consumes an IDENT token, or raises ExpectedId.
func (p *Parser) expectIdent() (token.Token, *ParseError) {
	tok := p.peek()
	if tok.Kind != token.IDENT {
		return token.Token{}, strict(ExpectedId, tok.Span, "expected an identifier, found %s", tok.Kind)
	}
	return p.advance(), nil
}

// commaList parses a comma-separated list of items produced by parseItem.
// If allowEmpty is false the first item is mandatory; the caller is
// expected to have already confirmed the list should be attempted.
func commaList[T any](p *Parser, allowEmpty bool, parseItem func() (T, *ParseError)) ([]T, *ParseError) {
	var items []T

	first, err := attempt(p, parseItem)
	if err != nil {
		if err.Weak && allowEmpty {
			return nil, nil
		}
		return nil, err
	}
	items = append(items, first)

	for p.peek().Kind == token.COMMA {
		p.advance()
		item, err := parseItem()
		if err != nil {
			return nil, asStrict(err)
		}
		items = append(items, item)
	}
	return items, nil
}

// ---- procedures and types ---------------------------------------------------

func (p *Parser) parseProcedure() (*ast.Procedure, *ParseError) {
	kw, err := p.expect(token.KW_PROCEDURE)
	if err != nil {
		return nil, strict(ExpectedStatement, p.peek().Span, "expected a procedure declaration")
	}

	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}

	params, err := commaList(p, true, p.parseParam)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LCURLY); err != nil {
		return nil, err
	}

	body, err := p.parseStmtsUntil(token.RCURLY)
	if err != nil {
		return nil, err
	}

	end, err := p.expect(token.RCURLY)
	if err != nil {
		return nil, err
	}

	return &ast.Procedure{
		Name:   name.Literal,
		Params: params,
		Body:   body,
		Sp:     token.Join(kw.Span, end.Span),
	}, nil
}

func (p *Parser) parseParam() (ast.Param, *ParseError) {
	name := p.peek()
	if name.Kind != token.IDENT {
		return ast.Param{}, weak(ExpectedId, name.Span, "expected a parameter name")
	}
	p.advance()

	if _, err := p.expect(token.COLON); err != nil {
		return ast.Param{}, strict(MissingParameterType, p.peek().Span, "parameter %q is missing a type", name.Literal)
	}

	typ, err := p.parseType()
	if err != nil {
		return ast.Param{}, asStrict(err)
	}

	return ast.Param{Name: name.Literal, Type: typ, Sp: token.Join(name.Span, typ.Span())}, nil
}

var typeKeywords = map[token.Kind]bool{
	token.KW_INT: true, token.KW_BOOL: true, token.KW_LIST: true,
	token.KW_MAT: true, token.KW_FLOAT: true,
}

func (p *Parser) parseType() (ast.SyntaxType, *ParseError) {
	tok := p.peek()

	if tok.Kind == token.KW_TYPE {
		p.advance()
		if _, err := p.expect(token.LPAREN); err != nil {
			return ast.SyntaxType{}, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return ast.SyntaxType{}, asStrict(err)
		}
		end, err := p.expect(token.RPAREN)
		if err != nil {
			return ast.SyntaxType{}, err
		}
		return ast.NewExprType(e, token.Join(tok.Span, end.Span)), nil
	}

	if typeKeywords[tok.Kind] {
		p.advance()
		return ast.NewKeywordType(tok.Kind, tok.Span), nil
	}

	return ast.SyntaxType{}, strict(ExpectedType, tok.Span, "expected a type, found %s", tok.Kind)
}

// ---- statements -------------------------------------------------------------

func (p *Parser) parseStmtsUntil(end token.Kind) ([]ast.Stmt, *ParseError) {
	var stmts []ast.Stmt
	for p.peek().Kind != end && !p.atEOF() {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func (p *Parser) parseStmt() (ast.Stmt, *ParseError) {
	switch p.peek().Kind {
	case token.KW_IF:
		return p.parseIf()
	case token.KW_FOR:
		return p.parseFor()
	case token.KW_GLOBAL:
		return p.parseGlobal()
	case token.KW_DEL:
		return p.parseDel()
	case token.KW_DEBUG, token.KW_BLINK, token.KW_DELAY, token.KW_PRINTLED, token.KW_PRINTLEDX:
		return p.parseBuiltinStmt()
	case token.IDENT:
		return p.parseIdentLedStmt()
	default:
		tok := p.peek()
		return nil, strict(ExpectedStatement, tok.Span, "expected a statement, found %s", tok.Kind)
	}
}

func (p *Parser) parseIf() (ast.Stmt, *ParseError) {
	kw := p.advance()
	cond, err := p.parseExpr()
	if err != nil {
		return nil, asStrict(err)
	}
	if _, err := p.expect(token.LCURLY); err != nil {
		return nil, err
	}
	body, err := p.parseStmtsUntil(token.RCURLY)
	if err != nil {
		return nil, err
	}
	end, err := p.expect(token.RCURLY)
	if err != nil {
		return nil, err
	}
	return &ast.IfStmt{baseStmt(kw, end), cond, body}, nil
}

func (p *Parser) parseFor() (ast.Stmt, *ParseError) {
	kw := p.advance()
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KW_IN); err != nil {
		return nil, err
	}
	iterable, err := p.parseExpr()
	if err != nil {
		return nil, asStrict(err)
	}

	var step ast.Expr
	if p.peek().Kind == token.KW_STEP {
		p.advance()
		step, err = p.parseExpr()
		if err != nil {
			return nil, asStrict(err)
		}
	}

	if _, err := p.expect(token.LCURLY); err != nil {
		return nil, err
	}
	body, err := p.parseStmtsUntil(token.RCURLY)
	if err != nil {
		return nil, err
	}
	end, err := p.expect(token.RCURLY)
	if err != nil {
		return nil, err
	}

	return &ast.ForStmt{baseStmt(kw, end), name.Literal, iterable, step, body}, nil
}

func (p *Parser) parseIdentList() ([]string, *ParseError) {
	idents, err := commaList(p, false, func() (string, *ParseError) {
		tok := p.peek()
		if tok.Kind != token.IDENT {
			return "", weak(ExpectedId, tok.Span, "expected an identifier")
		}
		p.advance()
		return tok.Literal, nil
	})
	return idents, err
}

func (p *Parser) parseGlobal() (ast.Stmt, *ParseError) {
	kw := p.advance()
	names, err := p.parseIdentList()
	if err != nil {
		return nil, asStrict(err)
	}
	end, err := p.expect(token.SEMICOLON)
	if err != nil {
		return nil, err
	}
	return &ast.GlobalStmt{baseStmt(kw, end), names}, nil
}

func (p *Parser) parseDel() (ast.Stmt, *ParseError) {
	kw := p.advance()
	names, err := p.parseIdentList()
	if err != nil {
		return nil, asStrict(err)
	}
	end, err := p.expect(token.SEMICOLON)
	if err != nil {
		return nil, err
	}
	return &ast.DelStmt{baseStmt(kw, end), names}, nil
}

var builtinKinds = map[token.Kind]ast.BuiltinKind{
	token.KW_DEBUG:     ast.BuiltinDebug,
	token.KW_BLINK:     ast.BuiltinBlink,
	token.KW_DELAY:     ast.BuiltinDelay,
	token.KW_PRINTLED:  ast.BuiltinPrintLed,
	token.KW_PRINTLEDX: ast.BuiltinPrintLedX,
}

func (p *Parser) parseBuiltinStmt() (ast.Stmt, *ParseError) {
	kw := p.advance()
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	args, err := commaList(p, true, p.parseExpr)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	end, err := p.expect(token.SEMICOLON)
	if err != nil {
		return nil, err
	}
	return &ast.BuiltinStmt{baseStmt(kw, end), builtinKinds[kw.Kind], args}, nil
}

// parseIdentLedStmt implements spec.md §4.2's disambiguation rule: a
// user-call if the identifier is immediately followed by '(', a
// method-call if a single target is followed by '.', and an assignment
// otherwise (requiring a trailing '=').
func (p *Parser) parseIdentLedStmt() (ast.Stmt, *ParseError) {
	start := p.peek()

	if p.peekAt(1).Kind == token.LPAREN {
		call, err := p.parseCallExpr()
		if err != nil {
			return nil, asStrict(err)
		}
		end, err := p.expect(token.SEMICOLON)
		if err != nil {
			return nil, err
		}
		return &ast.CallStmt{baseStmt(start, end), call}, nil
	}

	if p.peekAt(1).Kind == token.DOT {
		p.advance() // ident
		p.advance() // dot
		method, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.LPAREN); err != nil {
			return nil, err
		}
		args, err := commaList(p, true, p.parseExpr)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		end, err := p.expect(token.SEMICOLON)
		if err != nil {
			return nil, err
		}
		target := &ast.VarExpr{baseExpr(start.Span), start.Literal}
		return &ast.MethodCallStmt{baseStmt(start, end), target, method.Literal, args}, nil
	}

	targets, err := commaList(p, false, p.parseLValue)
	if err != nil {
		return nil, asStrict(err)
	}

	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}

	values, err := commaList(p, false, p.parseExpr)
	if err != nil {
		return nil, asStrict(err)
	}

	end, err := p.expect(token.SEMICOLON)
	if err != nil {
		return nil, err
	}

	return &ast.AssignStmt{baseStmt(start, end), targets, values}, nil
}

// parseLValue parses an assignment target: a bare variable, or an indexed
// variable. original_source marks indexing-on-assignment-target as
// unimplemented (spec.md §9, design note #4); this parser accepts the
// syntax and lets the resolver reject it with UnsupportedLValue.
func (p *Parser) parseLValue() (ast.Expr, *ParseError) {
	tok := p.peek()
	if tok.Kind != token.IDENT {
		return nil, weak(ExpectedId, tok.Span, "expected an assignment target")
	}
	p.advance()
	var e ast.Expr = &ast.VarExpr{baseExpr(tok.Span), tok.Literal}

	for p.peek().Kind == token.LSQUARE {
		var err *ParseError
		e, err = p.parseIndexSuffix(e)
		if err != nil {
			return nil, asStrict(err)
		}
	}
	return e, nil
}

// ---- expressions -------------------------------------------------------------

func (p *Parser) parseExpr() (ast.Expr, *ParseError) {
	return p.parseComparison()
}

var comparisonOps = map[token.Kind]bool{
	token.EQUAL: true, token.NOTEQUAL: true, token.LESS: true,
	token.LESSEQ: true, token.GREATER: true, token.GREATEREQ: true,
}

func (p *Parser) parseComparison() (ast.Expr, *ParseError) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for comparisonOps[p.peek().Kind] {
		op := p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, asStrict(err)
		}
		left = &ast.BinaryExpr{baseExpr(token.Join(left.Span(), right.Span())), op.Kind, left, right, false}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expr, *ParseError) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.peek().Kind == token.PLUS || p.peek().Kind == token.MINUS {
		op := p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, asStrict(err)
		}
		left = &ast.BinaryExpr{baseExpr(token.Join(left.Span(), right.Span())), op.Kind, left, right, false}
	}
	return left, nil
}

var multiplicativeOps = map[token.Kind]bool{
	token.TIMES: true, token.DIV: true, token.INTDIV: true, token.MOD: true,
}

func (p *Parser) parseMultiplicative() (ast.Expr, *ParseError) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for multiplicativeOps[p.peek().Kind] {
		op := p.advance()
		right, err := p.parsePower()
		if err != nil {
			return nil, asStrict(err)
		}
		left = &ast.BinaryExpr{baseExpr(token.Join(left.Span(), right.Span())), op.Kind, left, right, false}
	}
	return left, nil
}

// parsePower is right-associative, per spec.md §4.2.
func (p *Parser) parsePower() (ast.Expr, *ParseError) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.peek().Kind == token.POW {
		op := p.advance()
		right, err := p.parsePower()
		if err != nil {
			return nil, asStrict(err)
		}
		return &ast.BinaryExpr{baseExpr(token.Join(left.Span(), right.Span())), op.Kind, left, right, false}, nil
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, *ParseError) {
	if p.peek().Kind == token.MINUS {
		op := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, asStrict(err)
		}
		return &ast.UnaryExpr{baseExpr(token.Join(op.Span, operand.Span())), op.Kind, operand, false}, nil
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary expression followed by zero or more
// attribute/index suffixes.
func (p *Parser) parsePostfix() (ast.Expr, *ParseError) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.peek().Kind {
		case token.DOT:
			p.advance()
			attr, aerr := p.expectIdent()
			if aerr != nil {
				return nil, aerr
			}
			e = &ast.AttrExpr{baseExpr(token.Join(e.Span(), attr.Span)), e, attr.Literal}
		case token.LSQUARE:
			var ierr *ParseError
			e, ierr = p.parseIndexSuffix(e)
			if ierr != nil {
				return nil, asStrict(ierr)
			}
		default:
			return e, nil
		}
	}
}

// parseIndexSuffix parses one `[...]` suffix in any of the four shapes of
// spec.md §3: single, range (lo:hi), indirect (r,c), transposed (:,c).
func (p *Parser) parseIndexSuffix(target ast.Expr) (ast.Expr, *ParseError) {
	open, err := p.expect(token.LSQUARE)
	if err != nil {
		return nil, err
	}

	if p.peek().Kind == token.COLON {
		p.advance()
		if _, err := p.expect(token.COMMA); err != nil {
			return nil, err
		}
		col, err := p.parseExpr()
		if err != nil {
			return nil, asStrict(err)
		}
		end, err := p.expect(token.RSQUARE)
		if err != nil {
			return nil, err
		}
		return &ast.IndexExpr{baseExpr(token.Join(open.Span, end.Span)), target, ast.IndexTransposed, nil, col}, nil
	}

	first, err := p.parseRangeBound()
	if err != nil {
		return nil, asStrict(err)
	}

	switch p.peek().Kind {
	case token.COLON:
		p.advance()
		second, err := p.parseRangeBound()
		if err != nil {
			return nil, asStrict(err)
		}
		end, err := p.expect(token.RSQUARE)
		if err != nil {
			return nil, err
		}
		return &ast.IndexExpr{baseExpr(token.Join(open.Span, end.Span)), target, ast.IndexRange, first, second}, nil

	case token.COMMA:
		p.advance()
		col, err := p.parseExpr()
		if err != nil {
			return nil, asStrict(err)
		}
		end, err := p.expect(token.RSQUARE)
		if err != nil {
			return nil, err
		}
		return &ast.IndexExpr{baseExpr(token.Join(open.Span, end.Span)), target, ast.IndexIndirect, first, col}, nil

	default:
		end, err := p.expect(token.RSQUARE)
		if err != nil {
			return nil, err
		}
		return &ast.IndexExpr{baseExpr(token.Join(open.Span, end.Span)), target, ast.IndexSingle, first, nil}, nil
	}
}

// parseRangeBound parses an (optional) expression on one side of `lo:hi`;
// an empty bound (immediately `:` or `]`) is represented by a nil Expr.
func (p *Parser) parseRangeBound() (ast.Expr, *ParseError) {
	if p.peek().Kind == token.COLON || p.peek().Kind == token.RSQUARE {
		return nil, nil
	}
	return p.parseExpr()
}

func (p *Parser) parsePrimary() (ast.Expr, *ParseError) {
	tok := p.peek()

	switch tok.Kind {
	case token.INT:
		p.advance()
		return &ast.IntLit{baseExpr(tok.Span), parseInt32(tok.Literal)}, nil

	case token.KW_TRUE, token.KW_FALSE:
		p.advance()
		return &ast.BoolLit{baseExpr(tok.Span), tok.Kind == token.KW_TRUE}, nil

	case token.STRING:
		p.advance()
		return &ast.StringLit{baseExpr(tok.Span), tok.Literal}, nil

	case token.KW_LEN:
		p.advance()
		if _, err := p.expect(token.LPAREN); err != nil {
			return nil, err
		}
		arg, err := p.parseExpr()
		if err != nil {
			return nil, asStrict(err)
		}
		end, err := p.expect(token.RPAREN)
		if err != nil {
			return nil, err
		}
		return &ast.LenExpr{baseExpr(token.Join(tok.Span, end.Span)), arg}, nil

	case token.LPAREN:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, asStrict(err)
		}
		end, err := p.expect(token.RPAREN)
		if err != nil {
			return nil, err
		}
		return enclose(inner, token.Join(tok.Span, end.Span)), nil

	case token.LSQUARE:
		p.advance()
		elems, err := commaList(p, true, p.parseExpr)
		if err != nil {
			return nil, err
		}
		end, err := p.expect(token.RSQUARE)
		if err != nil {
			return nil, err
		}
		return &ast.ListLit{baseExpr(token.Join(tok.Span, end.Span)), elems}, nil

	case token.IDENT:
		if p.peekAt(1).Kind == token.LPAREN {
			if isRangeCall(tok.Literal) {
				return p.parseRangeCall()
			}
			return p.parseCallExpr()
		}
		p.advance()
		return &ast.VarExpr{baseExpr(tok.Span), tok.Literal}, nil

	default:
		if typeKeywords[tok.Kind] {
			return p.parseCastOrZero()
		}
		// Weak: nothing has been consumed yet, so an empty comma-list
		// (e.g. zero-argument call) can still backtrack cleanly here.
		// Callers that have already committed wrap this in asStrict.
		return nil, weak(ExpectedExpr, tok.Span, "expected an expression, found %s", tok.Kind)
	}
}

func isRangeCall(name string) bool { return name == "range" }

func (p *Parser) parseRangeCall() (ast.Expr, *ParseError) {
	start := p.advance() // "range"
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	n, err := p.parseExpr()
	if err != nil {
		return nil, asStrict(err)
	}
	if _, err := p.expect(token.COMMA); err != nil {
		return nil, err
	}
	v, err := p.parseExpr()
	if err != nil {
		return nil, asStrict(err)
	}
	end, err := p.expect(token.RPAREN)
	if err != nil {
		return nil, err
	}
	return &ast.RangeExpr{baseExpr(token.Join(start.Span, end.Span)), n, v}, nil
}

func (p *Parser) parseCallExpr() (*ast.CallExpr, *ParseError) {
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	args, err := commaList(p, true, p.parseExpr)
	if err != nil {
		return nil, err
	}
	end, err := p.expect(token.RPAREN)
	if err != nil {
		return nil, err
	}
	return &ast.CallExpr{baseExpr(token.Join(name.Span, end.Span)), name.Literal, args}, nil
}

// parseCastOrZero parses `T(e)` or the zero-valued construction `T()`.
func (p *Parser) parseCastOrZero() (ast.Expr, *ParseError) {
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, perr := p.expect(token.LPAREN); perr != nil {
		return nil, perr
	}

	if p.peek().Kind == token.RPAREN {
		end := p.advance()
		return &ast.CastExpr{baseExpr(token.Join(typ.Span(), end.Span)), typ, nil}, nil
	}

	arg, aerr := p.parseExpr()
	if aerr != nil {
		return nil, asStrict(aerr)
	}
	end, perr := p.expect(token.RPAREN)
	if perr != nil {
		return nil, perr
	}
	return &ast.CastExpr{baseExpr(token.Join(typ.Span(), end.Span)), typ, arg}, nil
}

func enclose(e ast.Expr, span token.Span) ast.Expr {
	switch n := e.(type) {
	case *ast.BinaryExpr:
		cp := *n
		cp.Enclosed = true
		return &cp
	case *ast.UnaryExpr:
		cp := *n
		cp.Enclosed = true
		return &cp
	default:
		return e
	}
}

func parseInt32(lit string) int32 {
	var v int64
	for _, c := range lit {
		v = v*10 + int64(c-'0')
	}
	return int32(v)
}

// baseStmt/baseExpr build the embedded Base{Stmt,Expr} value every AST
// node carries, from the tokens bracketing the node.
func baseStmt(start, end token.Token) ast.BaseStmt {
	return ast.BaseStmt{Sp: token.Join(start.Span, end.Span)}
}

func baseExpr(span token.Span) ast.BaseExpr {
	return ast.BaseExpr{Sp: span}
}
