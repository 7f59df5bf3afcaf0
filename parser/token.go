package parser

// TokenKind classifies one lexical token.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdent
	TokNumber
	TokString
	TokHexLiteral
	TokAddressLiteral
	TokPunct
	TokKeyword
)

func (k TokenKind) String() string {
	switch k {
	case TokEOF:
		return "eof"
	case TokIdent:
		return "identifier"
	case TokNumber:
		return "number"
	case TokString:
		return "string"
	case TokHexLiteral:
		return "hex literal"
	case TokAddressLiteral:
		return "address literal"
	case TokPunct:
		return "punctuation"
	case TokKeyword:
		return "keyword"
	default:
		return "token"
	}
}

// Token is one lexical unit with its byte offsets into the source file.
type Token struct {
	Kind  TokenKind
	Text  string
	Start int
	End   int

	// NumberHex/NumberNegative/NumberUnit/StringValue/HexValue carry the
	// literal-specific payload the parser needs without re-scanning Text.
	NumberHex      bool
	NumberNegative bool
	NumberUnit     string
	StringValue    string
	HexValue       string
}

var keywords = map[string]bool{
	"pragma": true, "import": true, "contract": true, "interface": true,
	"library": true, "abstract": true, "is": true, "enum": true,
	"struct": true, "event": true, "indexed": true, "anonymous": true,
	"function": true, "constructor": true, "fallback": true, "receive": true,
	"modifier": true, "returns": true, "return": true,
	"public": true, "private": true, "internal": true, "external": true,
	"pure": true, "view": true, "payable": true, "virtual": true, "override": true,
	"constant": true, "immutable": true, "memory": true, "storage": true, "calldata": true,
	"if": true, "else": true, "while": true, "do": true, "for": true,
	"break": true, "continue": true, "delete": true, "emit": true,
	"try": true, "catch": true, "unchecked": true, "new": true,
	"true": true, "false": true, "mapping": true, "using": true,
	"this": true, "super": true, "_": true,
	"address": true, "bool": true, "string": true, "bytes": true,
}

// elementary type names recognised directly by the lexer/parser rather
// than treated as plain identifiers requiring later symbol lookup.
var elementaryPrefixes = []string{
	"bool", "string", "bytes", "address",
}
