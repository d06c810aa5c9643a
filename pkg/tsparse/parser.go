// Package tsparse wraps tree-sitter grammars for TypeScript, TSX, JavaScript,
// and Vue single-file components behind a pooled, concurrency-safe parser.
package tsparse

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Sentinel errors.
var (
	// ErrMalformedSource reports input the grammar could not parse.
	ErrMalformedSource = errors.New("malformed source")
	// ErrUnsupportedLanguage reports a language without a grammar.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	errNoRootNode = errors.New("parser returned no root node")
	errPoolType   = errors.New("parser pool returned unexpected type")
)

// maxErrorSnippet bounds the source excerpt attached to syntax errors.
const maxErrorSnippet = 40

// SyntaxError locates the first unparseable region of a source unit.
type SyntaxError struct {
	Line    int
	Column  int
	Snippet string
}

func (se *SyntaxError) Error() string {
	return fmt.Sprintf("%s: line %d, column %d near %q", ErrMalformedSource, se.Line, se.Column, se.Snippet)
}

// Unwrap lets errors.Is match ErrMalformedSource.
func (se *SyntaxError) Unwrap() error {
	return ErrMalformedSource
}

// Parser parses source units. It is safe for concurrent use; each grammar
// keeps its own pool of tree-sitter parsers.
type Parser struct {
	mu    sync.Mutex
	pools map[Language]*sync.Pool
}

// NewParser creates a parser with lazily initialized grammar pools.
func NewParser() *Parser {
	return &Parser{pools: make(map[Language]*sync.Pool)}
}

func (p *Parser) pool(lang Language) (*sync.Pool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pool, ok := p.pools[lang]; ok {
		return pool, nil
	}

	grammarLang := grammar(lang)
	if grammarLang == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}

	pool := &sync.Pool{
		New: func() any {
			tsParser := sitter.NewParser()
			tsParser.SetLanguage(grammarLang)

			return tsParser
		},
	}
	p.pools[lang] = pool

	return pool, nil
}

// Parse builds a syntax tree. The caller must Close the returned tree.
// Input containing syntax errors fails with a *SyntaxError.
func (p *Parser) Parse(ctx context.Context, lang Language, src []byte) (*Tree, error) {
	tree, err := p.ParseLenient(ctx, lang, src)
	if err != nil {
		return nil, err
	}

	if errNode, found := firstError(tree.Root()); found {
		syntaxErr := tree.syntaxError(errNode)
		tree.Close()

		return nil, syntaxErr
	}

	return tree, nil
}

// ParseLenient builds a syntax tree without rejecting ERROR nodes.
// Used by the highlighter, which must cope with partial input.
func (p *Parser) ParseLenient(ctx context.Context, lang Language, src []byte) (*Tree, error) {
	pool, err := p.pool(lang)
	if err != nil {
		return nil, err
	}

	tsParser, ok := pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer pool.Put(tsParser)

	tree, parseErr := tsParser.ParseString(ctx, nil, src)
	if parseErr != nil {
		return nil, fmt.Errorf("parse %s: %w", lang, parseErr)
	}

	root := tree.RootNode()
	if root.IsNull() {
		tree.Close()

		return nil, errNoRootNode
	}

	return &Tree{tree: tree, Source: src, Lang: lang}, nil
}

func firstError(node sitter.Node) (sitter.Node, bool) {
	if node.IsNull() {
		return sitter.Node{}, false
	}

	if node.Type() == "ERROR" {
		return node, true
	}

	for idx := range node.ChildCount() {
		if found, ok := firstError(node.Child(idx)); ok {
			return found, true
		}
	}

	return sitter.Node{}, false
}
