package condition

import (
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FileEvaluator evaluates conditions against a game data directory. The
// supported functions are file("name"), active("name"),
// checksum("name", CRC), version("name", "v", op) and
// product_version("name", "v", op), combined with and, or, not and
// parentheses.
type FileEvaluator struct {
	dataPath      string
	activePlugins map[string]bool
	versions      map[string]string
	crcCache      map[string]uint32

	logger zerolog.Logger
}

// NewFileEvaluator returns an evaluator rooted at the given data
// directory.
func NewFileEvaluator(dataPath string) *FileEvaluator {
	return &FileEvaluator{
		dataPath:      dataPath,
		activePlugins: make(map[string]bool),
		versions:      make(map[string]string),
		crcCache:      make(map[string]uint32),
		logger:        log.With().Str("component", "condition.files").Logger(),
	}
}

// SetActivePlugins records which plugins are active for active().
func (e *FileEvaluator) SetActivePlugins(names []string) {
	e.activePlugins = make(map[string]bool, len(names))
	for _, n := range names {
		e.activePlugins[strings.ToLower(n)] = true
	}
}

// SetVersion records a file's version string for version() comparisons.
func (e *FileEvaluator) SetVersion(name, version string) {
	e.versions[strings.ToLower(name)] = version
}

// Evaluate parses and evaluates one condition string.
func (e *FileEvaluator) Evaluate(condition string) (bool, error) {
	tokens, err := tokenize(condition)
	if err != nil {
		return false, NewSyntaxError(condition, err.Error())
	}

	p := &parser{condition: condition, tokens: tokens, eval: e}
	result, err := p.parseOr()
	if err != nil {
		return false, err
	}
	if !p.atEnd() {
		return false, NewSyntaxError(condition, fmt.Sprintf("unexpected %q", p.peek().text))
	}
	return result, nil
}

func (e *FileEvaluator) fileExists(name string) bool {
	_, err := os.Stat(filepath.Join(e.dataPath, name))
	return err == nil
}

func (e *FileEvaluator) isActive(name string) bool {
	return e.activePlugins[strings.ToLower(name)]
}

func (e *FileEvaluator) checksumMatches(name string, crc uint32) (bool, error) {
	key := strings.ToLower(name)
	if cached, ok := e.crcCache[key]; ok {
		return cached == crc, nil
	}

	data, err := os.ReadFile(filepath.Join(e.dataPath, name))
	if err != nil {
		return false, nil
	}

	sum := crc32.ChecksumIEEE(data)
	e.crcCache[key] = sum
	return sum == crc, nil
}

func (e *FileEvaluator) versionMatches(name, wanted, op string) (bool, error) {
	actual, ok := e.versions[strings.ToLower(name)]
	if !ok {
		// An unversioned or missing file satisfies no comparison; the
		// negated forms are expressed with not.
		return false, nil
	}

	actualVersion, err := semver.NewVersion(actual)
	if err != nil {
		return false, fmt.Errorf("invalid recorded version %q for %q: %w", actual, name, err)
	}
	wantedVersion, err := semver.NewVersion(wanted)
	if err != nil {
		return false, fmt.Errorf("invalid version %q: %w", wanted, err)
	}

	cmp := actualVersion.Compare(wantedVersion)
	switch op {
	case "==":
		return cmp == 0, nil
	case "!=":
		return cmp != 0, nil
	case "<":
		return cmp < 0, nil
	case ">":
		return cmp > 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">=":
		return cmp >= 0, nil
	default:
		return false, fmt.Errorf("unknown comparison operator %q", op)
	}
}

type tokenKind int

const (
	tokenWord tokenKind = iota
	tokenString
	tokenOperator
	tokenLeftParen
	tokenRightParen
	tokenComma
)

type token struct {
	kind tokenKind
	text string
}

func tokenize(input string) ([]token, error) {
	var tokens []token

	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokenLeftParen, text: "("})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokenRightParen, text: ")"})
			i++
		case c == ',':
			tokens = append(tokens, token{kind: tokenComma, text: ","})
			i++
		case c == '"':
			end := strings.IndexByte(input[i+1:], '"')
			if end < 0 {
				return nil, fmt.Errorf("unterminated string at offset %d", i)
			}
			tokens = append(tokens, token{kind: tokenString, text: input[i+1 : i+1+end]})
			i += end + 2
		case c == '=' || c == '!' || c == '<' || c == '>':
			op := string(c)
			if i+1 < len(input) && input[i+1] == '=' {
				op += "="
				i++
			}
			tokens = append(tokens, token{kind: tokenOperator, text: op})
			i++
		case isWordByte(c):
			start := i
			for i < len(input) && isWordByte(input[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokenWord, text: input[start:i]})
		default:
			return nil, fmt.Errorf("unexpected character %q at offset %d", c, i)
		}
	}

	return tokens, nil
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

// parser is a recursive-descent parser over the tokenized condition,
// with precedence not > and > or.
type parser struct {
	condition string
	tokens    []token
	pos       int
	eval      *FileEvaluator
}

func (p *parser) atEnd() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) peek() token {
	if p.atEnd() {
		return token{}
	}
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	if p.atEnd() || p.peek().kind != kind {
		return token{}, NewSyntaxError(p.condition, fmt.Sprintf("expected %s", what))
	}
	return p.next(), nil
}

func (p *parser) parseOr() (bool, error) {
	result, err := p.parseAnd()
	if err != nil {
		return false, err
	}

	for !p.atEnd() && p.peek().kind == tokenWord && p.peek().text == "or" {
		p.next()
		rhs, err := p.parseAnd()
		if err != nil {
			return false, err
		}
		result = result || rhs
	}

	return result, nil
}

func (p *parser) parseAnd() (bool, error) {
	result, err := p.parseNot()
	if err != nil {
		return false, err
	}

	for !p.atEnd() && p.peek().kind == tokenWord && p.peek().text == "and" {
		p.next()
		rhs, err := p.parseNot()
		if err != nil {
			return false, err
		}
		result = result && rhs
	}

	return result, nil
}

func (p *parser) parseNot() (bool, error) {
	if !p.atEnd() && p.peek().kind == tokenWord && p.peek().text == "not" {
		p.next()
		result, err := p.parseNot()
		if err != nil {
			return false, err
		}
		return !result, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (bool, error) {
	if p.atEnd() {
		return false, NewSyntaxError(p.condition, "unexpected end of condition")
	}

	if p.peek().kind == tokenLeftParen {
		p.next()
		result, err := p.parseOr()
		if err != nil {
			return false, err
		}
		if _, err := p.expect(tokenRightParen, `")"`); err != nil {
			return false, err
		}
		return result, nil
	}

	name, err := p.expect(tokenWord, "a function name")
	if err != nil {
		return false, err
	}

	switch name.text {
	case "file", "active", "checksum", "version", "product_version":
	default:
		return false, NewSyntaxError(p.condition, fmt.Sprintf("unknown function %q", name.text))
	}

	if _, err := p.expect(tokenLeftParen, `"("`); err != nil {
		return false, err
	}

	path, err := p.expect(tokenString, "a quoted path")
	if err != nil {
		return false, err
	}

	var result bool
	switch name.text {
	case "file":
		result = p.eval.fileExists(path.text)

	case "active":
		result = p.eval.isActive(path.text)

	case "checksum":
		if _, err := p.expect(tokenComma, `","`); err != nil {
			return false, err
		}
		crcToken, err := p.expect(tokenWord, "a CRC value")
		if err != nil {
			return false, err
		}
		crc, err := strconv.ParseUint(crcToken.text, 16, 32)
		if err != nil {
			return false, NewSyntaxError(p.condition, fmt.Sprintf("invalid CRC %q", crcToken.text))
		}
		result, err = p.eval.checksumMatches(path.text, uint32(crc))
		if err != nil {
			return false, err
		}

	case "version", "product_version":
		if _, err := p.expect(tokenComma, `","`); err != nil {
			return false, err
		}
		wanted, err := p.expect(tokenString, "a quoted version")
		if err != nil {
			return false, err
		}
		if _, err := p.expect(tokenComma, `","`); err != nil {
			return false, err
		}
		op, err := p.expect(tokenOperator, "a comparison operator")
		if err != nil {
			return false, err
		}
		result, err = p.eval.versionMatches(path.text, wanted.text, op.text)
		if err != nil {
			return false, NewSyntaxError(p.condition, err.Error())
		}
	}

	if _, err := p.expect(tokenRightParen, `")"`); err != nil {
		return false, err
	}

	return result, nil
}
