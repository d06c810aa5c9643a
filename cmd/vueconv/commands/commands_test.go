package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/vueconv/cmd/vueconv/commands"
	"github.com/Sumatoshi-tech/vueconv/pkg/refine"
)

const counterSource = `import { Component, Prop, Vue } from "vue-property-decorator";

@Component
export default class Counter extends Vue {
  @Prop({ default: 0 }) readonly start!: number;

  count = this.start;

  increment() {
    this.count++;
  }
}
`

const setterSource = `@Component
export default class Field extends Vue {
  set value(next: string) {
    console.log(next);
  }
}
`

type output struct {
	stdout string
	stderr string
}

// execute runs the root command with an empty config file so the caller's
// .vueconv.yaml never leaks into a test.
func execute(t *testing.T, stdin string, args ...string) (output, error) {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), ".vueconv.yaml")
	require.NoError(t, os.WriteFile(cfgPath, nil, 0o600))

	var stdout, stderr bytes.Buffer

	cmd := commands.NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))

	err := cmd.ExecuteContext(context.Background())

	return output{stdout: stdout.String(), stderr: stderr.String()}, err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestRootCommand_Subcommands(t *testing.T) {
	t.Parallel()

	root := commands.NewRootCommand()

	names := make([]string, 0, len(root.Commands()))
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}

	for _, want := range []string{"convert", "inspect", "rules", "serve", "mcp", "lsp", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestConvert_PrintsFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "Counter.ts", counterSource)

	out, err := execute(t, "", "convert", "--color", "never", path)
	require.NoError(t, err)

	assert.Contains(t, out.stdout, "export default defineComponent({")
	assert.Contains(t, out.stdout, "const count = ref(start.value);")
	assert.NotContains(t, out.stdout, "==>")
}

func TestConvert_Diff(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "Counter.ts", counterSource)

	out, err := execute(t, "", "convert", "--diff", "--color", "never", path)
	require.NoError(t, err)

	assert.Contains(t, out.stdout, "--- a/"+path+"\n")
	assert.Contains(t, out.stdout, "+++ b/"+path+"\n")
	assert.Contains(t, out.stdout, "\n-export default class Counter extends Vue {\n")
	assert.Contains(t, out.stdout, "\n+export default defineComponent({\n")
	assert.Contains(t, out.stdout, "@@ -")

	unchanged, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, counterSource, string(unchanged))
}

func TestConvert_WriteDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	component := writeFile(t, dir, "components/Counter.vue",
		"<template>\n  <button @click=\"increment\">{{ count }}</button>\n</template>\n\n<script lang=\"ts\">\n"+
			counterSource+"</script>\n")
	util := writeFile(t, dir, "util.ts", "export const a = 1;\n")
	vendored := writeFile(t, dir, "node_modules/lib/Lib.ts", counterSource)
	notes := writeFile(t, dir, "README.md", "# notes\n")

	out, err := execute(t, "", "convert", "--write", "--script-setup", "-j", "2", dir)
	require.NoError(t, err)

	converted, err := os.ReadFile(component)
	require.NoError(t, err)
	assert.Contains(t, string(converted), "<script setup lang=\"ts\">\n")
	assert.Contains(t, string(converted), "const props = defineProps({")
	assert.Contains(t, string(converted), "<button @click=\"increment\">")

	for path, want := range map[string]string{util: "export const a = 1;\n", vendored: counterSource, notes: "# notes\n"} {
		got, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		assert.Equal(t, want, string(got), path)
	}

	assert.Contains(t, out.stderr, "converted "+component)
	assert.Contains(t, out.stderr, "2 files")
	assert.Empty(t, out.stdout)
}

func TestConvert_Stdin(t *testing.T) {
	t.Parallel()

	out, err := execute(t, counterSource, "convert", "--lang", "typescript", "--script-setup", "--color", "never")
	require.NoError(t, err)

	assert.Contains(t, out.stdout, "const props = defineProps({")
	assert.Contains(t, out.stdout, "const count = ref(props.start);")
}

func TestConvert_FormatCommand(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("tr"); err != nil {
		t.Skipf("tr not available: %v", err)
	}

	dir := t.TempDir()
	path := writeFile(t, dir, "Counter.ts", counterSource)

	_, err := execute(t, "", "convert", "--write", "--format-cmd", "tr a-z A-Z", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "EXPORT DEFAULT DEFINECOMPONENT({")
}

func TestConvert_JSON(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "Counter.ts", counterSource)

	out, err := execute(t, "", "convert", "--json", path)
	require.NoError(t, err)

	var reports []struct {
		Path   string `json:"path"`
		Result struct {
			Class     string `json:"class"`
			Converted bool   `json:"converted"`
		} `json:"result"`
	}

	require.NoError(t, json.Unmarshal([]byte(out.stdout), &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, path, reports[0].Path)
	assert.Equal(t, "Counter", reports[0].Result.Class)
	assert.True(t, reports[0].Result.Converted)
}

func TestConvert_Rules(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rules := writeFile(t, dir, "rules.yaml", `rules:
  - name: store
    pattern: '\bthis\.\$store\b'
    replacement: store
`)
	path := writeFile(t, dir, "Cart.ts", `@Component
export default class Cart extends Vue {
  checkout() {
    this.$store.dispatch("checkout");
  }
}
`)

	out, err := execute(t, "", "convert", "--rules", rules, "--rewrite-this=false", "--color", "never", path)
	require.NoError(t, err)
	assert.Contains(t, out.stdout, `store.dispatch("checkout");`)
}

func TestConvert_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	counter := writeFile(t, dir, "Counter.ts", counterSource)
	setter := writeFile(t, dir, "Field.ts", setterSource)
	broken := writeFile(t, dir, "broken.ts", "class { = = }\n")

	tests := []struct {
		name string
		args []string
		want error
	}{
		{name: "write with diff", args: []string{"convert", "--write", "--diff", counter}, want: commands.ErrFlagConflict},
		{name: "write stdin", args: []string{"convert", "--write"}, want: commands.ErrFlagConflict},
		{name: "color", args: []string{"convert", "--color", "rainbow", counter}, want: commands.ErrInvalidColor},
		{name: "language", args: []string{"convert", "--lang", "cobol", counter}, want: commands.ErrUnknownLanguage},
		{name: "malformed", args: []string{"convert", broken}, want: commands.ErrConversionFailed},
		{name: "warnings", args: []string{"convert", "--fail-on-warning", setter}, want: commands.ErrWarnings},
		{name: "empty directory", args: []string{"convert", t.TempDir()}, want: commands.ErrNoInputs},
		{name: "bad rules", args: []string{"convert", "--rules", counter, counter}, want: refine.ErrInvalidRules},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := execute(t, "", tt.args...)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConvert_WarningsReported(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "Field.ts", setterSource)

	out, err := execute(t, "", "convert", "--color", "never", path)
	require.NoError(t, err)
	assert.Contains(t, out.stderr, path+": warning: line 3 value: [unresolved-setter]")
}

func TestInspect(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "Counter.ts", counterSource)

	out, err := execute(t, "", "inspect", path)
	require.NoError(t, err)

	assert.Contains(t, out.stdout, path+": Counter (line ")
	assert.Contains(t, out.stdout, "increment")

	out, err = execute(t, "", "inspect", "--json", path)
	require.NoError(t, err)
	assert.Contains(t, out.stdout, `"class": "Counter"`)
}

func TestRules(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "", "rules", "default")
	require.NoError(t, err)
	assert.Equal(t, string(refine.DefaultRulesYAML()), out.stdout)

	dir := t.TempDir()
	valid := writeFile(t, dir, "rules.yaml", out.stdout)
	invalid := writeFile(t, dir, "broken.yaml", "rules:\n  - name: x\n")

	out, err = execute(t, "", "rules", "validate", valid)
	require.NoError(t, err)
	assert.Contains(t, out.stdout, "rules OK")

	_, err = execute(t, "", "rules", "validate", invalid)
	require.ErrorIs(t, err, refine.ErrInvalidRules)

	out, err = execute(t, "", "rules", "list")
	require.NoError(t, err)
	assert.Contains(t, out.stdout, "i18n")
}

func TestVersion(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "", "version", "--json")
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out.stdout), &info))
	assert.NotEmpty(t, info["version"])

	out, err = execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.stdout, "vueconv "))
}
