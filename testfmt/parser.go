package testfmt

import "fmt"

// parseError reports an unexpected token, mirroring polonius-parser's
// ParseError::UnexpectedToken without carrying source spans: these
// programs are short enough that a message naming what was found is
// plenty to locate the mistake.
type parseError struct {
	found    tokenKind
	expected []tokenKind
}

func (e *parseError) Error() string {
	return fmt.Sprintf("testfmt: unexpected token %s, expected one of %v", e.found, e.expected)
}

type parser struct {
	lex  *lexer
	peek token
}

func newParser(input string) *parser {
	l := newLexer(input)
	return &parser{lex: l, peek: l.next()}
}

func (p *parser) bump() token {
	t := p.peek
	p.peek = p.lex.next()
	return t
}

func (p *parser) at(k tokenKind) bool { return p.peek.kind == k }

func (p *parser) tryConsume(k tokenKind) (token, bool) {
	if !p.at(k) {
		return token{}, false
	}
	return p.bump(), true
}

func (p *parser) consume(k tokenKind) (token, error) {
	if t, ok := p.tryConsume(k); ok {
		return t, nil
	}
	return token{}, &parseError{found: p.peek.kind, expected: []tokenKind{k}}
}

// Parse parses a complete test program.
func Parse(input string) (*program, error) {
	return newParser(input).parseProgram()
}

func (p *parser) parseProgram() (*program, error) {
	placeholders, err := p.parsePlaceholders()
	if err != nil {
		return nil, err
	}

	prog := &program{placeholders: placeholders}

	if p.at(tokKnownSubsets) {
		prog.knownSubsets, err = p.parseKnownSubsets()
		if err != nil {
			return nil, err
		}
	}
	if p.at(tokUseOfVarDerefsOrigin) {
		prog.useOfVarDerefsOrigin, err = p.parseVarOriginMappings(tokUseOfVarDerefsOrigin)
		if err != nil {
			return nil, err
		}
	}
	if p.at(tokDropOfVarDerefsOrigin) {
		prog.dropOfVarDerefsOrigin, err = p.parseVarOriginMappings(tokDropOfVarDerefsOrigin)
		if err != nil {
			return nil, err
		}
	}

	prog.blocks, err = p.parseBlocks()
	if err != nil {
		return nil, err
	}

	return prog, nil
}

func (p *parser) parsePlaceholders() ([]string, error) {
	if _, err := p.consume(tokPlaceholders); err != nil {
		return nil, err
	}
	if _, err := p.consume(tokLBrace); err != nil {
		return nil, err
	}
	origins, err := p.delimited(tokOrigin, tokComma)
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(tokRBrace); err != nil {
		return nil, err
	}
	return origins, nil
}

func (p *parser) parseKnownSubsets() ([]originPair, error) {
	if _, err := p.consume(tokKnownSubsets); err != nil {
		return nil, err
	}
	if _, err := p.consume(tokLBrace); err != nil {
		return nil, err
	}
	var out []originPair
	for p.at(tokOrigin) {
		a := p.bump().text
		if _, err := p.consume(tokColon); err != nil {
			return nil, err
		}
		b := p.bump().text
		out = append(out, originPair{a: a, b: b})
		if _, ok := p.tryConsume(tokComma); !ok {
			break
		}
	}
	if _, err := p.consume(tokRBrace); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *parser) parseVarOriginMappings(intro tokenKind) ([]varOrigin, error) {
	if _, err := p.consume(intro); err != nil {
		return nil, err
	}
	if _, err := p.consume(tokLBrace); err != nil {
		return nil, err
	}
	var out []varOrigin
	for {
		if _, ok := p.tryConsume(tokLParen); !ok {
			break
		}
		variable := p.bump().text
		if _, err := p.consume(tokComma); err != nil {
			return nil, err
		}
		origin := p.bump().text
		if _, err := p.consume(tokRParen); err != nil {
			return nil, err
		}
		out = append(out, varOrigin{variable: variable, origin: origin})
		if _, ok := p.tryConsume(tokComma); !ok {
			break
		}
	}
	if _, err := p.consume(tokRBrace); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *parser) parseBlocks() ([]block, error) {
	var blocks []block
	for {
		if _, ok := p.tryConsume(tokBlock); !ok {
			break
		}
		name := p.bump().text
		if _, err := p.consume(tokLBrace); err != nil {
			return nil, err
		}
		statements, err := p.parseStatements()
		if err != nil {
			return nil, err
		}
		goTo, err := p.parseGoto()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(tokRBrace); err != nil {
			return nil, err
		}
		blocks = append(blocks, block{name: name, statements: statements, goTo: goTo})
	}
	return blocks, nil
}

func (p *parser) parseStatements() ([]statement, error) {
	var statements []statement
	for {
		if p.at(tokGoto) || p.at(tokRBrace) {
			return statements, nil
		}
		first, err := p.parseEffects()
		if err != nil {
			return nil, err
		}
		switch p.peek.kind {
		case tokSemi:
			p.bump()
			statements = append(statements, newStatement(first))
		case tokSlash:
			p.bump()
			mid, err := p.parseEffects()
			if err != nil {
				return nil, err
			}
			if _, err := p.consume(tokSemi); err != nil {
				return nil, err
			}
			statements = append(statements, statement{effectsStart: first, effectsMid: mid})
		default:
			return nil, &parseError{found: p.peek.kind, expected: []tokenKind{tokSemi, tokSlash}}
		}
	}
}

// newStatement mirrors ir.rs's Statement::new: effects with no explicit
// "/" split are Mid effects, except origin_live_on_entry, which is also
// required at Start.
func newStatement(effects []effect) statement {
	var start []effect
	for _, e := range effects {
		if e.kind == effectFact && e.fact.kind == factOriginLiveOnEntry {
			start = append(start, e)
		}
	}
	return statement{effectsStart: start, effectsMid: effects}
}

func (p *parser) parseEffects() ([]effect, error) {
	var effects []effect
	for {
		if p.at(tokUse) {
			e, err := p.parseUse()
			if err != nil {
				return nil, err
			}
			effects = append(effects, e)
		} else {
			f, ok, err := p.tryParseFact()
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			effects = append(effects, effect{kind: effectFact, fact: f})
		}
		if _, ok := p.tryConsume(tokComma); !ok {
			break
		}
	}
	return effects, nil
}

func (p *parser) parseUse() (effect, error) {
	if _, err := p.consume(tokUse); err != nil {
		return effect{}, err
	}
	if _, err := p.consume(tokLParen); err != nil {
		return effect{}, err
	}
	origins, err := p.delimited(tokOrigin, tokComma)
	if err != nil {
		return effect{}, err
	}
	if _, err := p.consume(tokRParen); err != nil {
		return effect{}, err
	}
	return effect{kind: effectUse, origins: origins}, nil
}

// tryParseFact parses one fact, or reports ok=false without error if the
// next token does not start any known fact, matching parse_effects's
// non-fatal end-of-enumeration behavior in parser.rs.
func (p *parser) tryParseFact() (fact, bool, error) {
	switch p.peek.kind {
	case tokOutlives:
		p.bump()
		if _, err := p.consume(tokLParen); err != nil {
			return fact{}, false, err
		}
		a := p.bump().text
		if _, err := p.consume(tokColon); err != nil {
			return fact{}, false, err
		}
		b := p.bump().text
		if _, err := p.consume(tokRParen); err != nil {
			return fact{}, false, err
		}
		return fact{kind: factOutlives, a: a, b: b}, true, nil

	case tokLoanIssuedAt:
		p.bump()
		if _, err := p.consume(tokLParen); err != nil {
			return fact{}, false, err
		}
		origin := p.bump().text
		if _, err := p.consume(tokComma); err != nil {
			return fact{}, false, err
		}
		loan := p.bump().text
		if _, err := p.consume(tokRParen); err != nil {
			return fact{}, false, err
		}
		return fact{kind: factLoanIssuedAt, origin: origin, loan: loan}, true, nil

	case tokLoanInvalidatedAt:
		p.bump()
		loan, err := p.parseSingleArg()
		if err != nil {
			return fact{}, false, err
		}
		return fact{kind: factLoanInvalidatedAt, loan: loan}, true, nil

	case tokLoanKilledAt:
		p.bump()
		loan, err := p.parseSingleArg()
		if err != nil {
			return fact{}, false, err
		}
		return fact{kind: factLoanKilledAt, loan: loan}, true, nil

	case tokVarUsedAt:
		p.bump()
		v, err := p.parseSingleArg()
		if err != nil {
			return fact{}, false, err
		}
		return fact{kind: factVarUsedAt, variable: v}, true, nil

	case tokVarDefinedAt:
		p.bump()
		v, err := p.parseSingleArg()
		if err != nil {
			return fact{}, false, err
		}
		return fact{kind: factVarDefinedAt, variable: v}, true, nil

	case tokVarDroppedAt:
		p.bump()
		v, err := p.parseSingleArg()
		if err != nil {
			return fact{}, false, err
		}
		return fact{kind: factVarDroppedAt, variable: v}, true, nil

	case tokOriginLiveOnEntry:
		p.bump()
		origin, err := p.parseSingleArg()
		if err != nil {
			return fact{}, false, err
		}
		return fact{kind: factOriginLiveOnEntry, origin: origin}, true, nil

	default:
		return fact{}, false, nil
	}
}

func (p *parser) parseSingleArg() (string, error) {
	if _, err := p.consume(tokLParen); err != nil {
		return "", err
	}
	arg := p.bump().text
	if _, err := p.consume(tokRParen); err != nil {
		return "", err
	}
	return arg, nil
}

func (p *parser) parseGoto() ([]string, error) {
	if _, ok := p.tryConsume(tokGoto); !ok {
		return nil, nil
	}
	targets, err := p.delimited(tokBlockRef, tokComma)
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(tokSemi); err != nil {
		return nil, err
	}
	return targets, nil
}

func (p *parser) delimited(kind, sep tokenKind) ([]string, error) {
	var out []string
	for p.at(kind) {
		out = append(out, p.bump().text)
		if _, ok := p.tryConsume(sep); !ok {
			break
		}
	}
	return out, nil
}
