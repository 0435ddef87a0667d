// Package testfmt is a hand-written lexer and parser for the compact
// textual notation used to write fact-producing test programs directly
// in Go source (§6): blocks of statements, each contributing facts at
// its Start and Mid points, wired together by implicit and explicit
// control-flow edges. It exists purely for this repo's own tests; the
// driver never depends on it. Grounded on polonius-parser's lexer.rs
// and parser.rs, reworked from a token-iterator/trait design into plain
// functions returning errors, since Go has no iterator trait to lean on.
package testfmt

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokError
	tokComma
	tokColon
	tokSemi
	tokSlash
	tokLParen
	tokRParen
	tokLBrace
	tokRBrace
	tokOrigin   // 'a
	tokBlockRef // B0
	tokLoan     // L0
	tokVariable // V0

	tokPlaceholders
	tokKnownSubsets
	tokUseOfVarDerefsOrigin
	tokDropOfVarDerefsOrigin
	tokBlock
	tokGoto

	tokOutlives
	tokLoanIssuedAt
	tokLoanInvalidatedAt
	tokLoanKilledAt
	tokVarUsedAt
	tokVarDefinedAt
	tokVarDroppedAt
	tokOriginLiveOnEntry
	tokUse
)

type token struct {
	kind tokenKind
	text string
}

type lexer struct {
	input string
	pos   int
}

func newLexer(input string) *lexer { return &lexer{input: input} }

// next returns the next non-whitespace, non-comment token, or a tokEOF
// token once the input is exhausted.
func (l *lexer) next() token {
	for {
		if l.pos >= len(l.input) {
			return token{kind: tokEOF}
		}
		rest := l.input[l.pos:]

		if r := rune(rest[0]); unicode.IsSpace(r) {
			l.pos++
			continue
		}
		if strings.HasPrefix(rest, "//") {
			if i := strings.IndexByte(rest, '\n'); i >= 0 {
				l.pos += i + 1
			} else {
				l.pos += len(rest)
			}
			continue
		}
		return l.lexToken(rest)
	}
}

func (l *lexer) lexToken(rest string) token {
	single := map[byte]tokenKind{
		',': tokComma, ':': tokColon, ';': tokSemi, '/': tokSlash,
		'(': tokLParen, ')': tokRParen, '{': tokLBrace, '}': tokRBrace,
	}
	if kind, ok := single[rest[0]]; ok {
		l.pos++
		return token{kind: kind, text: rest[:1]}
	}

	switch rest[0] {
	case '\'', 'B', 'L', 'V':
		n := identLen(rest)
		text := rest[:n]
		l.pos += n
		switch rest[0] {
		case '\'':
			return token{kind: tokOrigin, text: text}
		case 'B':
			return token{kind: tokBlockRef, text: text}
		case 'L':
			return token{kind: tokLoan, text: text}
		default:
			return token{kind: tokVariable, text: text}
		}
	}

	for _, kw := range keywords {
		if strings.HasPrefix(rest, kw.text) {
			l.pos += len(kw.text)
			return token{kind: kw.kind, text: kw.text}
		}
	}

	l.pos++
	return token{kind: tokError, text: rest[:1]}
}

// identLen returns the length of a parameter token: the leading sigil
// plus a run of alphanumerics and underscores.
func identLen(s string) int {
	n := 1
	for n < len(s) && (isAlnum(s[n]) || s[n] == '_') {
		n++
	}
	return n
}

func isAlnum(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// keywords is tried in order and the first prefix match wins. The only
// keyword that is a prefix of another is "use", so it is listed after
// "use_of_var_derefs_origin", which isn't lexed as "use" plus garbage.
var keywords = []struct {
	text string
	kind tokenKind
}{
	{"use_of_var_derefs_origin", tokUseOfVarDerefsOrigin},
	{"drop_of_var_derefs_origin", tokDropOfVarDerefsOrigin},
	{"placeholders", tokPlaceholders},
	{"known_subsets", tokKnownSubsets},
	{"block", tokBlock},
	{"goto", tokGoto},
	{"outlives", tokOutlives},
	{"loan_issued_at", tokLoanIssuedAt},
	{"loan_invalidated_at", tokLoanInvalidatedAt},
	{"loan_killed_at", tokLoanKilledAt},
	{"var_used_at", tokVarUsedAt},
	{"var_defined_at", tokVarDefinedAt},
	{"origin_live_on_entry", tokOriginLiveOnEntry},
	{"var_dropped_at", tokVarDroppedAt},
	{"use", tokUse},
}

func (k tokenKind) String() string {
	names := map[tokenKind]string{
		tokEOF: "eof", tokError: "error", tokComma: ",", tokColon: ":",
		tokSemi: ";", tokSlash: "/", tokLParen: "(", tokRParen: ")",
		tokLBrace: "{", tokRBrace: "}", tokOrigin: "origin",
		tokBlockRef: "block-ref", tokLoan: "loan", tokVariable: "variable",
		tokPlaceholders: "placeholders", tokKnownSubsets: "known_subsets",
		tokUseOfVarDerefsOrigin: "use_of_var_derefs_origin",
		tokDropOfVarDerefsOrigin: "drop_of_var_derefs_origin",
		tokBlock: "block", tokGoto: "goto", tokOutlives: "outlives",
		tokLoanIssuedAt: "loan_issued_at", tokLoanInvalidatedAt: "loan_invalidated_at",
		tokLoanKilledAt: "loan_killed_at", tokVarUsedAt: "var_used_at",
		tokVarDefinedAt: "var_defined_at", tokVarDroppedAt: "var_dropped_at",
		tokOriginLiveOnEntry: "origin_live_on_entry", tokUse: "use",
	}
	if name, ok := names[k]; ok {
		return name
	}
	return fmt.Sprintf("tokenKind(%d)", int(k))
}
