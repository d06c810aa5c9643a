package tsparse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/vueconv/pkg/tsparse"
)

func TestDetectLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		filename string
		want     tsparse.Language
	}{
		{"Component.ts", tsparse.LangTypeScript},
		{"Component.TSX", tsparse.LangTSX},
		{"legacy.js", tsparse.LangJavaScript},
		{"src/views/Home.vue", tsparse.LangVue},
	}

	for _, tt := range tests {
		lang, err := tsparse.DetectLanguage(tt.filename, nil)
		require.NoError(t, err, tt.filename)
		assert.Equal(t, tt.want, lang, tt.filename)
	}
}

func TestDetectLanguage_Unsupported(t *testing.T) {
	t.Parallel()

	_, err := tsparse.DetectLanguage("main.go", []byte("package main\n"))
	require.ErrorIs(t, err, tsparse.ErrUnsupportedLanguage)
}

func TestScriptLanguage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, tsparse.LangTypeScript, tsparse.ScriptLanguage("ts"))
	assert.Equal(t, tsparse.LangTSX, tsparse.ScriptLanguage(" TSX "))
	assert.Equal(t, tsparse.LangJavaScript, tsparse.ScriptLanguage(""))
}

func TestExtractScript(t *testing.T) {
	t.Parallel()

	src := []byte(`<template>
  <div>{{ label }}</div>
</template>

<script lang="ts">
export default class Foo {}
</script>
`)

	parser := tsparse.NewParser()

	block, err := parser.ExtractScript(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, tsparse.LangTypeScript, block.Lang)
	assert.False(t, block.Setup)
	assert.Contains(t, string(block.Content(src)), "export default class Foo {}")

	spliced := block.Splice(src, "\nexport default {}\n")
	assert.Contains(t, string(spliced), "<script lang=\"ts\">\nexport default {}\n</script>")
	assert.Contains(t, string(spliced), "<template>")

	retagged := block.SpliceTag(src, `<script setup lang="ts">`, "\nconst a = 1;\n")
	assert.Contains(t, string(retagged), "<script setup lang=\"ts\">\nconst a = 1;\n</script>")
}

func TestExtractScript_NoScript(t *testing.T) {
	t.Parallel()

	parser := tsparse.NewParser()

	_, err := parser.ExtractScript(context.Background(), []byte("<template><div/></template>\n"))
	require.ErrorIs(t, err, tsparse.ErrNoScriptBlock)
}
