package lexer

import "github.com/PierreBx/ariane-xml-sub000/internal/errs"

// Type is the lexical category of a Token.
type Type int

const (
	ILLEGAL Type = iota
	EOF

	IDENT  // identifiers, DSN shortcuts (30_001), unquoted path segments
	NUMBER // 123, 12.3, -4
	STRING // 'abc' or "abc"
	REGEX  // /pattern/

	// Operators.
	EQ  // =
	NEQ // != (and <>, accepted as a synonym)
	LT  // <
	GT  // >
	LTE // <=
	GTE // >=

	// Structural punctuation.
	COMMA  // ,
	LPAREN // (
	RPAREN // )
	DOT    // .
	SLASH  // /
	AT     // @
	STAR   // *

	keywordBeg
	SELECT
	DISTINCT
	FROM
	FOR
	IN
	AT_KW // the AT keyword of "FOR x IN y AT i" (disambiguated from the @ operator)
	WHERE
	AND
	OR
	NOT
	LIKE
	IS
	NULL
	GROUP
	BY
	HAVING
	ORDER
	ASC
	DESC
	LIMIT
	OFFSET
	AS
	COUNT
	SUM
	AVG
	MIN
	MAX
	FILE_NAME
	SET
	SHOW
	MODE
	STANDARD
	DSN
	DSN_VERSION
	XSD
	DEST
	VERBOSE
	DESCRIBE
	CHECK
	GENERATE
	XML
	PREFIX
	TEMPLATE
	COMPARE
	FORMAT
	LIST
	UPGRADE_TO
	keywordEnd
)

var typeNames = map[Type]string{
	ILLEGAL: "ILLEGAL", EOF: "EOF",
	IDENT: "IDENT", NUMBER: "NUMBER", STRING: "STRING", REGEX: "REGEX",
	EQ: "=", NEQ: "!=", LT: "<", GT: ">", LTE: "<=", GTE: ">=",
	COMMA: ",", LPAREN: "(", RPAREN: ")", DOT: ".", SLASH: "/", AT: "@", STAR: "*",
	SELECT: "SELECT", DISTINCT: "DISTINCT", FROM: "FROM", FOR: "FOR", IN: "IN",
	AT_KW: "AT", WHERE: "WHERE", AND: "AND", OR: "OR", NOT: "NOT", LIKE: "LIKE",
	IS: "IS", NULL: "NULL", GROUP: "GROUP", BY: "BY", HAVING: "HAVING",
	ORDER: "ORDER", ASC: "ASC", DESC: "DESC", LIMIT: "LIMIT", OFFSET: "OFFSET",
	AS: "AS", COUNT: "COUNT", SUM: "SUM", AVG: "AVG", MIN: "MIN", MAX: "MAX",
	FILE_NAME: "FILE_NAME", SET: "SET", SHOW: "SHOW", MODE: "MODE",
	STANDARD: "STANDARD", DSN: "DSN", DSN_VERSION: "DSN_VERSION", XSD: "XSD",
	DEST: "DEST", VERBOSE: "VERBOSE", DESCRIBE: "DESCRIBE", CHECK: "CHECK",
	GENERATE: "GENERATE", XML: "XML", PREFIX: "PREFIX", TEMPLATE: "TEMPLATE",
	COMPARE: "COMPARE", FORMAT: "FORMAT", LIST: "LIST", UPGRADE_TO: "UPGRADE_TO",
}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return "UNKNOWN"
}

var keywords map[string]Type

func init() {
	keywords = make(map[string]Type, int(keywordEnd-keywordBeg))
	for t := keywordBeg + 1; t < keywordEnd; t++ {
		keywords[typeNames[t]] = t
	}
	// AND/OR/NOT/IS/NULL double as both operators and keywords; already
	// registered above via typeNames. IN is registered as IDENT-adjacent
	// keyword too.
	keywords["IN"] = IN
}

// lookupIdent classifies an uppercased identifier as a keyword or plain
// IDENT (: "keyword matching uppercases before compare, identifier
// comparison does not").
func lookupIdent(upper string) Type {
	if t, ok := keywords[upper]; ok {
		return t
	}
	return IDENT
}

// Token is one lexical unit, carrying its 1-based source location so parse
// errors can be reported with line/column. Err is set on an ILLEGAL token
// whose cause is more specific than "unrecognized character" (e.g. an
// unterminated string literal), so the parser can surface the precise
// error code instead of a generic one.
type Token struct {
	Type    Type
	Literal string
	Line    int
	Col     int
	Err     *errs.Err
}
