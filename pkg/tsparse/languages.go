package tsparse

import (
	"sync"
	"unsafe"

	"github.com/alexaandru/go-sitter-forest/javascript"
	"github.com/alexaandru/go-sitter-forest/tsx"
	"github.com/alexaandru/go-sitter-forest/typescript"
	"github.com/alexaandru/go-sitter-forest/vue"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Language identifies a grammar known to the parser.
type Language string

// Supported grammars.
const (
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangJavaScript Language = "javascript"
	LangVue        Language = "vue"
)

// languageFuncs maps languages to their tree-sitter GetLanguage functions.
var languageFuncs = map[Language]func() unsafe.Pointer{
	LangTypeScript: typescript.GetLanguage,
	LangTSX:        tsx.GetLanguage,
	LangJavaScript: javascript.GetLanguage,
	LangVue:        vue.GetLanguage,
}

var languageCache sync.Map

// grammar returns the tree-sitter Language, or nil if not supported.
func grammar(lang Language) *sitter.Language {
	if cached, ok := languageCache.Load(lang); ok {
		grammarLang, castOK := cached.(*sitter.Language)
		if castOK {
			return grammarLang
		}
	}

	fn, ok := languageFuncs[lang]
	if !ok {
		return nil
	}

	grammarLang := sitter.NewLanguage(fn())
	languageCache.Store(lang, grammarLang)

	return grammarLang
}

// Supported reports whether lang has a grammar.
func Supported(lang Language) bool {
	_, ok := languageFuncs[lang]

	return ok
}
