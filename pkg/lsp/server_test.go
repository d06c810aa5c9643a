package lsp_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Sumatoshi-tech/vueconv/pkg/convert"
	"github.com/Sumatoshi-tech/vueconv/pkg/lsp"
)

const panelSource = `import { Component, Vue } from "vue-property-decorator";

@Component
export default class Panel extends Vue {
  set title(value: string) {
    console.log(value);
  }

  open = false;
}
`

func TestDocumentStore(t *testing.T) {
	t.Parallel()

	store := lsp.NewDocumentStore()
	uri := "file:///src/Panel.ts"

	_, ok := store.Get(uri)
	assert.False(t, ok)

	store.Set(uri, "initial")
	store.Set(uri, "updated")

	got, ok := store.Get(uri)
	require.True(t, ok)
	assert.Equal(t, "updated", got)
	assert.Equal(t, 1, store.Len())

	store.Delete(uri)

	_, ok = store.Get(uri)
	assert.False(t, ok)
}

func TestServer_Diagnostics(t *testing.T) {
	t.Parallel()

	srv := lsp.NewServer(convert.DefaultOptions(), nil)

	diags := srv.Diagnostics(context.Background(), "file:///src/Panel.ts", panelSource)
	require.Len(t, diags, 2)

	assert.Equal(t, protocol.DiagnosticSeverityWarning, *diags[0].Severity)
	assert.Equal(t, protocol.UInteger(4), diags[0].Range.Start.Line)
	assert.Equal(t, "unresolved-setter", diags[0].Code.Value)

	assert.Equal(t, protocol.DiagnosticSeverityHint, *diags[1].Severity)
	assert.Contains(t, diags[1].Message, "Panel")
}

func TestServer_DiagnosticsSyntaxError(t *testing.T) {
	t.Parallel()

	srv := lsp.NewServer(convert.DefaultOptions(), nil)

	diags := srv.Diagnostics(context.Background(), "file:///src/broken.ts", "const a = 1;\nclass { = = }\n")
	require.Len(t, diags, 1)
	assert.Equal(t, protocol.DiagnosticSeverityError, *diags[0].Severity)
	assert.Equal(t, "syntax", diags[0].Code.Value)
}

func TestServer_DiagnosticsIgnoresOtherFiles(t *testing.T) {
	t.Parallel()

	srv := lsp.NewServer(convert.DefaultOptions(), nil)

	assert.Empty(t, srv.Diagnostics(context.Background(), "file:///notes.txt", "plain text"))
	assert.Empty(t, srv.Diagnostics(context.Background(), "file:///util.ts", "export const a = 1;\n"))
}

func TestServer_CodeActions(t *testing.T) {
	t.Parallel()

	srv := lsp.NewServer(convert.DefaultOptions(), nil)
	uri := "file:///src/Panel.ts"

	actions := srv.CodeActions(context.Background(), uri, panelSource)
	require.Len(t, actions, 2)

	assert.Equal(t, "Convert to Composition API", actions[0].Title)
	assert.Equal(t, protocol.CodeActionKindRefactorRewrite, *actions[0].Kind)

	edits := actions[0].Edit.Changes[uri]
	require.Len(t, edits, 1)
	assert.Equal(t, protocol.Position{}, edits[0].Range.Start)
	assert.Equal(t, protocol.Position{Line: 10}, edits[0].Range.End)
	assert.Contains(t, edits[0].NewText, "defineComponent({")

	setupEdits := actions[1].Edit.Changes[uri]
	require.Len(t, setupEdits, 1)
	assert.NotContains(t, setupEdits[0].NewText, "defineComponent")
	assert.Contains(t, setupEdits[0].NewText, "const open = ref(false);")

	assert.Empty(t, srv.CodeActions(context.Background(), "file:///util.ts", "export const a = 1;\n"))
}
