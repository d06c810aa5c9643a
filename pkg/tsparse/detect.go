package tsparse

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/src-d/enry/v2"
)

// extensionLanguages resolves extensions enry reports ambiguously or not at all.
var extensionLanguages = map[string]Language{
	".ts":  LangTypeScript,
	".mts": LangTypeScript,
	".cts": LangTypeScript,
	".tsx": LangTSX,
	".js":  LangJavaScript,
	".mjs": LangJavaScript,
	".jsx": LangJavaScript,
	".vue": LangVue,
}

// enryLanguages maps linguist names to grammars.
var enryLanguages = map[string]Language{
	"TypeScript": LangTypeScript,
	"TSX":        LangTSX,
	"JavaScript": LangJavaScript,
	"Vue":        LangVue,
}

// DetectLanguage picks a grammar for a file from its name and content.
// Extensions win over content sniffing; enry covers the rest.
func DetectLanguage(filename string, content []byte) (Language, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if lang, ok := extensionLanguages[ext]; ok {
		return lang, nil
	}

	name := enry.GetLanguage(filepath.Base(filename), content)
	if lang, ok := enryLanguages[name]; ok {
		return lang, nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, filename)
}

// ScriptLanguage maps a `<script lang="...">` attribute to a grammar.
// Missing or unknown values fall back to JavaScript.
func ScriptLanguage(attr string) Language {
	switch strings.ToLower(strings.TrimSpace(attr)) {
	case "ts", "typescript":
		return LangTypeScript
	case "tsx":
		return LangTSX
	default:
		return LangJavaScript
	}
}
