// Package parser turns Solidity source text into the pt package's parse
// tree. It has no type or name knowledge; every node it produces is
// handed, unresolved, to core.ElaborateSourceUnit.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"solidc/pt"
)

// parseError is panicked by the recursive-descent helpers and recovered
// at the Parse/ParseFile boundary, the same "panic deep, recover once"
// shape a hand-rolled descent parser tends to end up with once error
// paths multiply past a handful of call sites.
type parseError struct {
	msg string
	loc pt.Loc
}

// ParseError is the error type returned to callers on a syntax error.
type ParseError struct {
	Message string
	Loc     pt.Loc
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Loc.Start, e.Loc.End, e.Message)
}

type Parser struct {
	toks []Token
	pos  int
	file int
}

func NewParser(toks []Token, file int) *Parser {
	return &Parser{toks: toks, file: file}
}

// Parse lexes and parses one file's source text into a *pt.SourceUnit.
func Parse(src string, file int) (unit *pt.SourceUnit, err error) {
	toks, lexErr := NewLexer(src).Tokenize()
	if lexErr != nil {
		return nil, lexErr
	}
	p := NewParser(toks, file)
	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(parseError)
			if !ok {
				panic(r)
			}
			err = &ParseError{Message: pe.msg, Loc: pe.loc}
		}
	}()
	return p.parseSourceUnit(), nil
}

// ---------------------------------------------------------------------
// token cursor helpers
// ---------------------------------------------------------------------

func (p *Parser) cur() Token { return p.toks[p.pos] }

func (p *Parser) curKind() TokenKind { return p.toks[p.pos].Kind }

func (p *Parser) advance() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) checkPunct(text string) bool {
	t := p.cur()
	return t.Kind == TokPunct && t.Text == text
}

func (p *Parser) checkKeyword(text string) bool {
	t := p.cur()
	return t.Kind == TokKeyword && t.Text == text
}

func (p *Parser) eatPunct(text string) bool {
	if p.checkPunct(text) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) eatKeyword(text string) bool {
	if p.checkKeyword(text) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) fail(format string, args ...interface{}) {
	t := p.cur()
	panic(parseError{msg: fmt.Sprintf(format, args...), loc: pt.Loc{File: p.file, Start: t.Start, End: t.End}})
}

func (p *Parser) expectPunct(text string) Token {
	if !p.checkPunct(text) {
		p.fail("expected %q, found %q", text, p.cur().Text)
	}
	return p.advance()
}

func (p *Parser) expectKeyword(text string) Token {
	if !p.checkKeyword(text) {
		p.fail("expected %q, found %q", text, p.cur().Text)
	}
	return p.advance()
}

func (p *Parser) identifier() pt.Identifier {
	t := p.cur()
	if t.Kind != TokIdent {
		p.fail("expected identifier, found %q", t.Text)
	}
	p.advance()
	return pt.Identifier{Loc: pt.Loc{File: p.file, Start: t.Start, End: t.End}, Name: t.Text}
}

func (p *Parser) locFrom(start Token) pt.Loc {
	end := p.toks[p.pos].Start
	if p.pos > 0 {
		end = p.toks[p.pos-1].End
	}
	return pt.Loc{File: p.file, Start: start.Start, End: end}
}

// ---------------------------------------------------------------------
// top level
// ---------------------------------------------------------------------

func (p *Parser) parseSourceUnit() *pt.SourceUnit {
	var parts []pt.SourceUnitPart
	for p.curKind() != TokEOF {
		switch {
		case p.checkKeyword("pragma"):
			p.skipUntilSemicolon()
		case p.checkKeyword("import"):
			p.skipUntilSemicolon()
		case p.checkKeyword("abstract"), p.checkKeyword("contract"), p.checkKeyword("interface"), p.checkKeyword("library"):
			parts = append(parts, p.parseContract())
		case p.checkKeyword("enum"):
			parts = append(parts, p.parseEnum())
		case p.checkKeyword("struct"):
			parts = append(parts, p.parseStruct())
		case p.checkKeyword("function"):
			parts = append(parts, p.parseFunctionDefinition())
		default:
			parts = append(parts, p.parseFileConstant())
		}
	}
	return &pt.SourceUnit{Parts: parts}
}

func (p *Parser) skipUntilSemicolon() {
	for !p.checkPunct(";") && p.curKind() != TokEOF {
		p.advance()
	}
	p.eatPunct(";")
}

func (p *Parser) parseFileConstant() pt.SourceUnitPart {
	decl, ok := p.tryParseVarDecl()
	if !ok {
		p.fail("expected a top-level declaration, found %q", p.cur().Text)
	}
	p.expectPunct(";")
	decl.Constant = true
	return decl
}

// ---------------------------------------------------------------------
// contracts
// ---------------------------------------------------------------------

func (p *Parser) parseContract() *pt.ContractDefinition {
	start := p.cur()
	ty := pt.ContractKind
	if p.eatKeyword("abstract") {
		ty = pt.AbstractKind
	}
	switch {
	case p.eatKeyword("contract"):
		if ty != pt.AbstractKind {
			ty = pt.ContractKind
		}
	case p.eatKeyword("interface"):
		ty = pt.InterfaceKind
	case p.eatKeyword("library"):
		ty = pt.LibraryKind
	default:
		p.fail("expected contract/interface/library, found %q", p.cur().Text)
	}
	name := p.identifier()

	var bases []pt.InheritanceSpecifier
	if p.eatKeyword("is") {
		bases = append(bases, p.parseInheritanceSpecifier())
		for p.eatPunct(",") {
			bases = append(bases, p.parseInheritanceSpecifier())
		}
	}

	p.expectPunct("{")
	var parts []pt.ContractPart
	for !p.checkPunct("}") {
		if p.checkKeyword("using") {
			p.skipUntilSemicolon()
			continue
		}
		parts = append(parts, p.parseContractPart())
	}
	p.expectPunct("}")

	return &pt.ContractDefinition{Loc: p.locFrom(start), Ty: ty, Name: name, Bases: bases, Parts: parts}
}

func (p *Parser) parseInheritanceSpecifier() pt.InheritanceSpecifier {
	start := p.cur()
	name := p.identifier()
	var args []pt.Expression
	if p.eatPunct("(") {
		if !p.checkPunct(")") {
			args = append(args, p.parseExpression())
			for p.eatPunct(",") {
				args = append(args, p.parseExpression())
			}
		}
		p.expectPunct(")")
	}
	return pt.InheritanceSpecifier{Loc: p.locFrom(start), Name: name, Args: args}
}

func (p *Parser) parseContractPart() pt.ContractPart {
	switch {
	case p.checkKeyword("enum"):
		return p.parseEnum()
	case p.checkKeyword("struct"):
		return p.parseStruct()
	case p.checkKeyword("event"):
		return p.parseEvent()
	case p.checkKeyword("function"), p.checkKeyword("constructor"), p.checkKeyword("fallback"),
		p.checkKeyword("receive"), p.checkKeyword("modifier"):
		return p.parseFunctionDefinition()
	default:
		return p.parseStateVariable()
	}
}

func (p *Parser) parseEnum() *pt.EnumDefinition {
	start := p.expectKeyword("enum")
	name := p.identifier()
	p.expectPunct("{")
	var values []pt.Identifier
	if !p.checkPunct("}") {
		values = append(values, p.identifier())
		for p.eatPunct(",") {
			values = append(values, p.identifier())
		}
	}
	p.expectPunct("}")
	return &pt.EnumDefinition{Loc: p.locFrom(start), Name: name, Values: values}
}

func (p *Parser) parseStruct() *pt.StructDefinition {
	start := p.expectKeyword("struct")
	name := p.identifier()
	p.expectPunct("{")
	var fields []pt.VariableDeclaration
	for !p.checkPunct("}") {
		ty := p.parseTypeExpr()
		p.skipDataLocation()
		fname := p.identifier()
		p.expectPunct(";")
		fields = append(fields, pt.VariableDeclaration{Ty: ty, Name: fname})
	}
	p.expectPunct("}")
	return &pt.StructDefinition{Loc: p.locFrom(start), Name: name, Fields: fields}
}

func (p *Parser) parseEvent() *pt.EventDefinition {
	start := p.expectKeyword("event")
	name := p.identifier()
	p.expectPunct("(")
	var fields []pt.EventParameter
	if !p.checkPunct(")") {
		for {
			ty := p.parseTypeExpr()
			indexed := p.eatKeyword("indexed")
			var fname pt.Identifier
			if p.curKind() == TokIdent {
				fname = p.identifier()
			}
			fields = append(fields, pt.EventParameter{Ty: ty, Indexed: indexed, Name: fname})
			if !p.eatPunct(",") {
				break
			}
		}
	}
	p.expectPunct(")")
	anon := p.eatKeyword("anonymous")
	p.expectPunct(";")
	return &pt.EventDefinition{Loc: p.locFrom(start), Name: name, Fields: fields, Anonymous: anon}
}

func (p *Parser) parseStateVariable() *pt.VariableDeclaration {
	start := p.cur()
	ty := p.parseTypeExpr()
	vis := pt.VisibilityDefault
	constant := false
	for {
		switch {
		case p.eatKeyword("public"):
			vis = pt.Public
		case p.eatKeyword("private"):
			vis = pt.Private
		case p.eatKeyword("internal"):
			vis = pt.Internal
		case p.eatKeyword("constant"):
			constant = true
		case p.eatKeyword("immutable"):
			// No dedicated storage class for immutables; they are laid
			// out like any other state variable (see DESIGN.md).
		default:
			goto done
		}
	}
done:
	name := p.identifier()
	var init pt.Expression
	if p.eatPunct("=") {
		init = p.parseExpression()
	}
	p.expectPunct(";")
	return &pt.VariableDeclaration{Loc: p.locFrom(start), Ty: ty, Visibility: vis, Constant: constant, Name: name, Initializer: init}
}

// ---------------------------------------------------------------------
// functions
// ---------------------------------------------------------------------

func (p *Parser) parseFunctionDefinition() *pt.FunctionDefinition {
	start := p.cur()
	var ty pt.FunctionTy
	var name pt.Identifier
	switch {
	case p.eatKeyword("constructor"):
		ty = pt.Constructor
	case p.eatKeyword("fallback"):
		ty = pt.Fallback
	case p.eatKeyword("receive"):
		ty = pt.Receive
	case p.eatKeyword("modifier"):
		ty = pt.Modifier
		name = p.identifier()
	case p.eatKeyword("function"):
		ty = pt.FunctionNormal
		if p.curKind() == TokIdent {
			name = p.identifier()
		}
	default:
		p.fail("expected a function-like declaration, found %q", p.cur().Text)
	}

	p.expectPunct("(")
	params := p.parseParamList()
	p.expectPunct(")")

	vis := pt.VisibilityDefault
	mut := pt.MutabilityDefault
	virtual := false
	var override *pt.OverrideSpecifier
	var modifiers []pt.ModifierInvocation
	var returns []pt.Parameter

specLoop:
	for {
		switch {
		case p.eatKeyword("public"):
			vis = pt.Public
		case p.eatKeyword("private"):
			vis = pt.Private
		case p.eatKeyword("internal"):
			vis = pt.Internal
		case p.eatKeyword("external"):
			vis = pt.External
		case p.eatKeyword("pure"):
			mut = pt.Pure
		case p.eatKeyword("view"):
			mut = pt.View
		case p.eatKeyword("payable"):
			mut = pt.Payable
		case p.eatKeyword("virtual"):
			virtual = true
		case p.checkKeyword("override"):
			p.advance()
			ov := &pt.OverrideSpecifier{}
			if p.eatPunct("(") {
				ov.Bases = append(ov.Bases, p.identifier())
				for p.eatPunct(",") {
					ov.Bases = append(ov.Bases, p.identifier())
				}
				p.expectPunct(")")
			}
			override = ov
		case p.checkKeyword("returns"):
			p.advance()
			p.expectPunct("(")
			returns = p.parseParamList()
			p.expectPunct(")")
		case p.curKind() == TokIdent:
			modifiers = append(modifiers, p.parseModifierInvocation())
		default:
			break specLoop
		}
	}

	var body []pt.Statement
	if !p.eatPunct(";") {
		body = p.parseBlockStmts()
	}

	return &pt.FunctionDefinition{
		Loc: p.locFrom(start), Ty: ty, Name: name, Params: params, Returns: returns,
		Visibility: vis, Mutability: mut, Virtual: virtual, Override: override,
		Modifiers: modifiers, Body: body,
	}
}

func (p *Parser) parseModifierInvocation() pt.ModifierInvocation {
	start := p.cur()
	name := p.identifier()
	var args []pt.Expression
	if p.eatPunct("(") {
		if !p.checkPunct(")") {
			args = append(args, p.parseExpression())
			for p.eatPunct(",") {
				args = append(args, p.parseExpression())
			}
		}
		p.expectPunct(")")
	}
	return pt.ModifierInvocation{Loc: p.locFrom(start), Name: name, Args: args}
}

func (p *Parser) parseParamList() []pt.Parameter {
	var params []pt.Parameter
	if p.checkPunct(")") {
		return params
	}
	for {
		start := p.cur()
		ty := p.parseTypeExpr()
		p.skipDataLocation()
		var name pt.Identifier
		if p.curKind() == TokIdent {
			name = p.identifier()
		}
		params = append(params, pt.Parameter{Loc: p.locFrom(start), Ty: ty, Name: name})
		if !p.eatPunct(",") {
			break
		}
	}
	return params
}

func (p *Parser) skipDataLocation() {
	if p.checkKeyword("memory") || p.checkKeyword("storage") || p.checkKeyword("calldata") {
		p.advance()
	}
}

// ---------------------------------------------------------------------
// types
// ---------------------------------------------------------------------

func (p *Parser) canStartType() bool {
	t := p.cur()
	if t.Kind == TokIdent {
		return true
	}
	if t.Kind == TokKeyword {
		switch t.Text {
		case "address", "bool", "string", "bytes", "mapping":
			return true
		}
	}
	return false
}

func (p *Parser) parseTypeExpr() pt.Expression {
	start := p.cur()
	if p.eatKeyword("mapping") {
		p.expectPunct("(")
		key := p.parseTypeExpr()
		p.expectPunct("=>")
		val := p.parseTypeExpr()
		p.expectPunct(")")
		ty := &pt.Type{Loc: p.locFrom(start), Name: "mapping", Mapping: &pt.MappingType{Loc: p.locFrom(start), Key: key, Value: val}}
		return p.parseArrayDims(ty)
	}
	name := p.parseTypeName()
	ty := &pt.Type{Loc: p.locFrom(start), Name: name}
	return p.parseArrayDims(ty)
}

func (p *Parser) parseTypeName() string {
	t := p.cur()
	if t.Kind == TokKeyword && t.Text == "address" {
		p.advance()
		if p.eatKeyword("payable") {
			return "address payable"
		}
		return "address"
	}
	if t.Kind == TokKeyword && (t.Text == "bool" || t.Text == "string" || t.Text == "bytes") {
		p.advance()
		return t.Text
	}
	if t.Kind == TokIdent {
		p.advance()
		name := t.Text
		for p.checkPunct(".") {
			p.advance()
			name += "." + p.identifier().Name
		}
		return name
	}
	p.fail("expected a type name, found %q", t.Text)
	return ""
}

func (p *Parser) parseArrayDims(base *pt.Type) *pt.Type {
	for p.checkPunct("[") {
		p.advance()
		if p.eatPunct("]") {
			base.Dims = append(base.Dims, -1)
			continue
		}
		size := -1
		if p.curKind() == TokNumber {
			if n, err := strconv.Atoi(p.cur().Text); err == nil {
				size = n
			}
			p.advance()
		}
		p.expectPunct("]")
		base.Dims = append(base.Dims, size)
	}
	return base
}

// tryParseVarDecl attempts to parse "Type [location] Name [= init]",
// restoring position and reporting failure if what follows the type
// doesn't look like a declared name. Used both for statement-level
// local declarations and for destructuring-assignment slots.
func (p *Parser) tryParseVarDecl() (*pt.VariableDeclaration, bool) {
	save := p.pos
	if !p.canStartType() {
		return nil, false
	}
	start := p.cur()
	ty := p.parseTypeExpr()
	p.skipDataLocation()
	if p.curKind() != TokIdent {
		p.pos = save
		return nil, false
	}
	name := p.identifier()
	var init pt.Expression
	if p.eatPunct("=") {
		init = p.parseExpression()
	}
	return &pt.VariableDeclaration{Loc: p.locFrom(start), Ty: ty, Name: name, Initializer: init}, true
}

// ---------------------------------------------------------------------
// statements
// ---------------------------------------------------------------------

func (p *Parser) parseBlockStmts() []pt.Statement {
	p.expectPunct("{")
	var stmts []pt.Statement
	for !p.checkPunct("}") {
		stmts = append(stmts, p.parseStatement())
	}
	p.expectPunct("}")
	return stmts
}

func (p *Parser) parseStatement() pt.Statement {
	start := p.cur()
	switch {
	case p.checkPunct("{"):
		return &pt.Block{Loc: p.locFrom(start), Stmts: p.parseBlockStmts()}
	case p.checkKeyword("if"):
		return p.parseIf()
	case p.checkKeyword("while"):
		return p.parseWhile()
	case p.checkKeyword("do"):
		return p.parseDoWhile()
	case p.checkKeyword("for"):
		return p.parseFor()
	case p.checkKeyword("return"):
		return p.parseReturn()
	case p.checkKeyword("break"):
		p.advance()
		p.expectPunct(";")
		return &pt.Break{Loc: p.locFrom(start)}
	case p.checkKeyword("continue"):
		p.advance()
		p.expectPunct(";")
		return &pt.Continue{Loc: p.locFrom(start)}
	case p.checkKeyword("_"):
		p.advance()
		p.expectPunct(";")
		return &pt.Underscore{Loc: p.locFrom(start)}
	case p.checkKeyword("delete"):
		p.advance()
		e := p.parseExpression()
		p.expectPunct(";")
		return &pt.Delete{Loc: p.locFrom(start), Expr: e}
	case p.checkKeyword("emit"):
		return p.parseEmit()
	case p.checkKeyword("try"):
		return p.parseTry()
	case p.checkKeyword("unchecked"):
		p.advance()
		return &pt.Unchecked{Loc: p.locFrom(start), Stmts: p.parseBlockStmts()}
	case p.checkPunct("(") && p.peekIsDestructureAssignment():
		return p.parseDestructure()
	default:
		if decl, ok := p.tryParseVarDecl(); ok {
			p.expectPunct(";")
			return decl
		}
		e := p.parseExpression()
		p.expectPunct(";")
		return &pt.ExpressionStatement{Loc: p.locFrom(start), Expr: e}
	}
}

func (p *Parser) parseIf() pt.Statement {
	start := p.expectKeyword("if")
	p.expectPunct("(")
	cond := p.parseExpression()
	p.expectPunct(")")
	then := p.parseStatement()
	var els pt.Statement
	if p.eatKeyword("else") {
		els = p.parseStatement()
	}
	return &pt.If{Loc: p.locFrom(start), Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseWhile() pt.Statement {
	start := p.expectKeyword("while")
	p.expectPunct("(")
	cond := p.parseExpression()
	p.expectPunct(")")
	body := p.parseStatement()
	return &pt.While{Loc: p.locFrom(start), Cond: cond, Body: body}
}

func (p *Parser) parseDoWhile() pt.Statement {
	start := p.expectKeyword("do")
	body := p.parseStatement()
	p.expectKeyword("while")
	p.expectPunct("(")
	cond := p.parseExpression()
	p.expectPunct(")")
	p.expectPunct(";")
	return &pt.DoWhile{Loc: p.locFrom(start), Body: body, Cond: cond}
}

func (p *Parser) parseFor() pt.Statement {
	start := p.expectKeyword("for")
	p.expectPunct("(")
	var init pt.Statement
	switch {
	case p.eatPunct(";"):
		// no init
	default:
		if decl, ok := p.tryParseVarDecl(); ok {
			p.expectPunct(";")
			init = decl
		} else {
			e := p.parseExpression()
			p.expectPunct(";")
			init = &pt.ExpressionStatement{Expr: e}
		}
	}
	var cond pt.Expression
	if !p.checkPunct(";") {
		cond = p.parseExpression()
	}
	p.expectPunct(";")
	var next pt.Statement
	if !p.checkPunct(")") {
		e := p.parseExpression()
		next = &pt.ExpressionStatement{Expr: e}
	}
	p.expectPunct(")")
	body := p.parseStatement()
	return &pt.For{Loc: p.locFrom(start), Init: init, Cond: cond, Next: next, Body: body}
}

func (p *Parser) parseReturn() pt.Statement {
	start := p.expectKeyword("return")
	if p.eatPunct(";") {
		return &pt.Return{Loc: p.locFrom(start)}
	}
	var exprs []pt.Expression
	exprs = append(exprs, p.parseExpression())
	for p.eatPunct(",") {
		exprs = append(exprs, p.parseExpression())
	}
	p.expectPunct(";")
	// `return (a, b);` parses its parenthesised group as one TupleExpr;
	// flatten it so Exprs lines up 1:1 with the function's return count.
	if len(exprs) == 1 {
		if tup, ok := exprs[0].(*pt.TupleExpr); ok {
			exprs = tup.Elems
		}
	}
	return &pt.Return{Loc: p.locFrom(start), Exprs: exprs}
}

func (p *Parser) parseEmit() pt.Statement {
	start := p.expectKeyword("emit")
	name := p.identifier()
	p.expectPunct("(")
	var args []pt.Expression
	if !p.checkPunct(")") {
		args = append(args, p.parseExpression())
		for p.eatPunct(",") {
			args = append(args, p.parseExpression())
		}
	}
	p.expectPunct(")")
	p.expectPunct(";")
	return &pt.Emit{Loc: p.locFrom(start), Name: name, Args: args}
}

func (p *Parser) parseTry() pt.Statement {
	start := p.expectKeyword("try")
	expr := p.parseExpression()
	var returns []pt.Parameter
	if p.eatKeyword("returns") {
		p.expectPunct("(")
		returns = p.parseParamList()
		p.expectPunct(")")
	}
	okBody := p.parseBlockStmts()

	var errClause, catchClause *pt.CatchClause
	for p.eatKeyword("catch") {
		cc := &pt.CatchClause{}
		if p.curKind() == TokIdent && p.cur().Text == "Error" {
			p.advance()
			cc.Error = true
			p.expectPunct("(")
			cc.Params = p.parseParamList()
			p.expectPunct(")")
		} else if p.curKind() == TokIdent && p.cur().Text == "Panic" {
			p.advance()
			p.expectPunct("(")
			cc.Params = p.parseParamList()
			p.expectPunct(")")
		} else if p.checkPunct("(") {
			p.advance()
			cc.Params = p.parseParamList()
			p.expectPunct(")")
		}
		cc.Body = p.parseBlockStmts()
		if cc.Error {
			errClause = cc
		} else {
			catchClause = cc
		}
	}

	return &pt.TryCatch{Loc: p.locFrom(start), Expr: expr, Returns: returns, OkBody: okBody, ErrorClause: errClause, CatchClause: catchClause}
}

func (p *Parser) peekIsDestructureAssignment() bool {
	depth := 0
	i := p.pos
	for i < len(p.toks) {
		t := p.toks[i]
		if t.Kind == TokEOF {
			return false
		}
		if t.Kind == TokPunct && t.Text == "(" {
			depth++
		}
		if t.Kind == TokPunct && t.Text == ")" {
			depth--
			if depth == 0 {
				break
			}
		}
		i++
	}
	i++
	return i < len(p.toks) && p.toks[i].Kind == TokPunct && p.toks[i].Text == "="
}

func (p *Parser) parseDestructure() pt.Statement {
	start := p.expectPunct("(")
	var fields []*pt.VariableDeclaration
	var idents []pt.Expression
	if !p.checkPunct(")") {
		for {
			switch {
			case p.checkPunct(",") || p.checkPunct(")"):
				fields = append(fields, nil)
				idents = append(idents, nil)
			default:
				if decl, ok := p.tryParseVarDecl(); ok {
					fields = append(fields, decl)
					idents = append(idents, nil)
				} else {
					e := p.parseExpression()
					fields = append(fields, nil)
					idents = append(idents, e)
				}
			}
			if !p.eatPunct(",") {
				break
			}
		}
	}
	p.expectPunct(")")
	p.expectPunct("=")
	rhs := p.parseExpression()
	p.expectPunct(";")
	return &pt.Destructure{Loc: p.locFrom(start), Fields: fields, Idents: idents, Rhs: rhs}
}

// ---------------------------------------------------------------------
// expressions (precedence-climbing, lowest to highest)
// ---------------------------------------------------------------------

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"|=": true, "&=": true, "^=": true, "<<=": true, ">>=": true,
}

func (p *Parser) parseExpression() pt.Expression {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() pt.Expression {
	left := p.parseTernary()
	t := p.cur()
	if t.Kind == TokPunct && assignOps[t.Text] {
		p.advance()
		right := p.parseAssignment()
		return &pt.AssignExpr{Loc: tokLoc(p.file, t), Op: t.Text, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseTernary() pt.Expression {
	cond := p.parseLogicalOr()
	if p.eatPunct("?") {
		trueExpr := p.parseExpression()
		p.expectPunct(":")
		falseExpr := p.parseTernary()
		return &pt.Ternary{Cond: cond, True: trueExpr, False: falseExpr}
	}
	return cond
}

func (p *Parser) parseLogicalOr() pt.Expression {
	left := p.parseLogicalAnd()
	for p.eatPunct("||") {
		right := p.parseLogicalAnd()
		left = &pt.BinaryExpr{Op: pt.OpOr, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseLogicalAnd() pt.Expression {
	left := p.parseEquality()
	for p.eatPunct("&&") {
		right := p.parseEquality()
		left = &pt.BinaryExpr{Op: pt.OpAnd, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseEquality() pt.Expression {
	left := p.parseRelational()
	for {
		switch {
		case p.eatPunct("=="):
			left = &pt.BinaryExpr{Op: pt.OpEq, Left: left, Right: p.parseRelational()}
		case p.eatPunct("!="):
			left = &pt.BinaryExpr{Op: pt.OpNeq, Left: left, Right: p.parseRelational()}
		default:
			return left
		}
	}
}

func (p *Parser) parseRelational() pt.Expression {
	left := p.parseBitOr()
	for {
		switch {
		case p.eatPunct("<="):
			left = &pt.BinaryExpr{Op: pt.OpLte, Left: left, Right: p.parseBitOr()}
		case p.eatPunct(">="):
			left = &pt.BinaryExpr{Op: pt.OpGte, Left: left, Right: p.parseBitOr()}
		case p.eatPunct("<"):
			left = &pt.BinaryExpr{Op: pt.OpLt, Left: left, Right: p.parseBitOr()}
		case p.eatPunct(">"):
			left = &pt.BinaryExpr{Op: pt.OpGt, Left: left, Right: p.parseBitOr()}
		default:
			return left
		}
	}
}

func (p *Parser) parseBitOr() pt.Expression {
	left := p.parseBitXor()
	for p.eatPunct("|") {
		left = &pt.BinaryExpr{Op: pt.OpBitOr, Left: left, Right: p.parseBitXor()}
	}
	return left
}

func (p *Parser) parseBitXor() pt.Expression {
	left := p.parseBitAnd()
	for p.eatPunct("^") {
		left = &pt.BinaryExpr{Op: pt.OpBitXor, Left: left, Right: p.parseBitAnd()}
	}
	return left
}

func (p *Parser) parseBitAnd() pt.Expression {
	left := p.parseShift()
	for p.eatPunct("&") {
		left = &pt.BinaryExpr{Op: pt.OpBitAnd, Left: left, Right: p.parseShift()}
	}
	return left
}

func (p *Parser) parseShift() pt.Expression {
	left := p.parseAdditive()
	for {
		switch {
		case p.eatPunct("<<"):
			left = &pt.BinaryExpr{Op: pt.OpShl, Left: left, Right: p.parseAdditive()}
		case p.eatPunct(">>"):
			left = &pt.BinaryExpr{Op: pt.OpShr, Left: left, Right: p.parseAdditive()}
		default:
			return left
		}
	}
}

func (p *Parser) parseAdditive() pt.Expression {
	left := p.parseMultiplicative()
	for {
		switch {
		case p.eatPunct("+"):
			left = &pt.BinaryExpr{Op: pt.OpAdd, Left: left, Right: p.parseMultiplicative()}
		case p.eatPunct("-"):
			left = &pt.BinaryExpr{Op: pt.OpSub, Left: left, Right: p.parseMultiplicative()}
		default:
			return left
		}
	}
}

func (p *Parser) parseMultiplicative() pt.Expression {
	left := p.parseExponent()
	for {
		switch {
		case p.eatPunct("*"):
			left = &pt.BinaryExpr{Op: pt.OpMul, Left: left, Right: p.parseExponent()}
		case p.eatPunct("/"):
			left = &pt.BinaryExpr{Op: pt.OpDiv, Left: left, Right: p.parseExponent()}
		case p.eatPunct("%"):
			left = &pt.BinaryExpr{Op: pt.OpMod, Left: left, Right: p.parseExponent()}
		default:
			return left
		}
	}
}

func (p *Parser) parseExponent() pt.Expression {
	left := p.parseUnary()
	if p.eatPunct("**") {
		right := p.parseExponent()
		return &pt.BinaryExpr{Op: pt.OpPow, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() pt.Expression {
	t := p.cur()
	if t.Kind == TokPunct {
		switch t.Text {
		case "!", "~", "-", "++", "--":
			p.advance()
			operand := p.parseUnary()
			return &pt.UnaryExpr{Loc: pt.Loc{File: p.file, Start: t.Start, End: t.End}, Op: t.Text, Expr: operand}
		case "+":
			p.advance()
			return p.parseUnary()
		}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() pt.Expression {
	expr := p.parsePrimary()
	for {
		switch {
		case p.checkPunct("."):
			p.advance()
			member := p.identifier()
			expr = &pt.MemberAccess{Expr: expr, Member: member}
		case p.checkPunct("["):
			p.advance()
			var index pt.Expression
			if !p.checkPunct("]") {
				index = p.parseExpression()
			}
			p.expectPunct("]")
			expr = &pt.IndexAccess{Expr: expr, Index: index}
		case p.checkPunct("("):
			p.advance()
			args := p.parseCallArgs()
			p.expectPunct(")")
			expr = &pt.FunctionCall{Callee: expr, Args: args}
		case p.checkPunct("{"):
			names, vals := p.parseNamedArgBody()
			expr = &pt.FunctionCallOptions{Expr: expr, Names: names, Values: vals}
		case p.checkPunct("++"), p.checkPunct("--"):
			op := p.advance()
			expr = &pt.UnaryExpr{Op: op.Text, Postfix: true, Expr: expr}
		default:
			return expr
		}
	}
}

func (p *Parser) parseCallArgs() pt.CallArgs {
	if p.checkPunct("{") {
		names, vals := p.parseNamedArgBody()
		return pt.CallArgs{Positional: vals, Names: names}
	}
	var args []pt.Expression
	if !p.checkPunct(")") {
		args = append(args, p.parseExpression())
		for p.eatPunct(",") {
			args = append(args, p.parseExpression())
		}
	}
	return pt.CallArgs{Positional: args}
}

func (p *Parser) parseNamedArgBody() ([]pt.Identifier, []pt.Expression) {
	p.expectPunct("{")
	var names []pt.Identifier
	var vals []pt.Expression
	if !p.checkPunct("}") {
		for {
			n := p.identifier()
			p.expectPunct(":")
			v := p.parseExpression()
			names = append(names, n)
			vals = append(vals, v)
			if !p.eatPunct(",") {
				break
			}
		}
	}
	p.expectPunct("}")
	return names, vals
}

var primaryKeywordIdents = map[string]bool{
	"address": true, "payable": true, "bool": true, "string": true, "bytes": true, "super": true,
}

// isElementaryTypeIdent recognises uintN/intN/bytesN spellings, which the
// lexer hands back as plain TokIdent (unlike "address"/"bool"/"string",
// which are fixed keywords): a bare "uint256" used where an expression is
// expected is a cast callee or a type(...) argument, never a variable
// reference, since identifiers of that shape are reserved by convention.
func isElementaryTypeIdent(name string) bool {
	for _, prefix := range []string{"uint", "int"} {
		if name == prefix {
			return true
		}
		if rest := strings.TrimPrefix(name, prefix); rest != name {
			if _, err := strconv.Atoi(rest); err == nil {
				return true
			}
		}
	}
	if rest := strings.TrimPrefix(name, "bytes"); rest != name && rest != "" {
		if _, err := strconv.Atoi(rest); err == nil {
			return true
		}
	}
	return false
}

func (p *Parser) parsePrimary() pt.Expression {
	t := p.cur()
	switch {
	case t.Kind == TokKeyword && t.Text == "true":
		p.advance()
		return &pt.BoolLiteral{Loc: tokLoc(p.file, t), Value: true}
	case t.Kind == TokKeyword && t.Text == "false":
		p.advance()
		return &pt.BoolLiteral{Loc: tokLoc(p.file, t), Value: false}
	case t.Kind == TokKeyword && t.Text == "this":
		p.advance()
		return &pt.This{Loc: tokLoc(p.file, t)}
	case t.Kind == TokKeyword && t.Text == "new":
		p.advance()
		ty := p.parseTypeExpr()
		return &pt.NewExpr{Loc: tokLoc(p.file, t), Ty: ty}
	case t.Kind == TokNumber:
		p.advance()
		return &pt.NumberLiteral{Loc: tokLoc(p.file, t), Value: t.Text, Unit: t.NumberUnit}
	case t.Kind == TokString:
		p.advance()
		return &pt.StringLiteral{Loc: tokLoc(p.file, t), Value: t.StringValue}
	case t.Kind == TokHexLiteral:
		p.advance()
		return &pt.HexLiteral{Loc: tokLoc(p.file, t), Value: t.HexValue}
	case t.Kind == TokAddressLiteral:
		p.advance()
		return &pt.AddressLiteral{Loc: tokLoc(p.file, t), Value: t.StringValue}
	case t.Kind == TokKeyword && t.Text == "mapping":
		return p.parseTypeExpr()
	case t.Kind == TokKeyword && t.Text == "address":
		return p.parseTypeExpr()
	case t.Kind == TokKeyword && primaryKeywordIdents[t.Text]:
		p.advance()
		return &pt.Variable{Loc: tokLoc(p.file, t), Name: t.Text}
	case t.Kind == TokIdent && isElementaryTypeIdent(t.Text):
		return p.parseTypeExpr()
	case t.Kind == TokIdent:
		p.advance()
		return &pt.Variable{Loc: tokLoc(p.file, t), Name: t.Text}
	case p.checkPunct("("):
		return p.parseParenOrTuple()
	case p.checkPunct("["):
		return p.parseArrayLiteral()
	default:
		p.fail("unexpected token %q in expression", t.Text)
		return nil
	}
}

func (p *Parser) parseParenOrTuple() pt.Expression {
	start := p.expectPunct("(")
	var elems []pt.Expression
	hasComma := false
	if !p.checkPunct(")") {
		for {
			if p.checkPunct(",") || p.checkPunct(")") {
				elems = append(elems, nil)
			} else {
				elems = append(elems, p.parseExpression())
			}
			if p.eatPunct(",") {
				hasComma = true
				continue
			}
			break
		}
	}
	p.expectPunct(")")
	if !hasComma && len(elems) == 1 && elems[0] != nil {
		return elems[0]
	}
	return &pt.TupleExpr{Loc: p.locFrom(start), Elems: elems}
}

func (p *Parser) parseArrayLiteral() pt.Expression {
	start := p.expectPunct("[")
	var elems []pt.Expression
	if !p.checkPunct("]") {
		elems = append(elems, p.parseExpression())
		for p.eatPunct(",") {
			elems = append(elems, p.parseExpression())
		}
	}
	p.expectPunct("]")
	return &pt.ArrayLiteral{Loc: p.locFrom(start), Elems: elems}
}

func tokLoc(file int, t Token) pt.Loc {
	return pt.Loc{File: file, Start: t.Start, End: t.End}
}
