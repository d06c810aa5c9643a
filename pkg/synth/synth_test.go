package synth_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/vueconv/pkg/classify"
	"github.com/Sumatoshi-tech/vueconv/pkg/diagnostic"
	"github.com/Sumatoshi-tech/vueconv/pkg/synth"
	"github.com/Sumatoshi-tech/vueconv/pkg/tsparse"
)

const counterComponent = `@Component
export default class Counter extends Vue {
  @Prop({ required: true }) readonly start!: number;

  count = this.start;

  get label(): string {
    return formatCount(this.count);
  }

  set label(value: string) {
    this.count = Number(value);
  }

  @Watch("start", { immediate: true })
  onStartChange(next: number) {
    this.count = next;
  }

  mounted() {
    this.$emit("ready", this.count);
  }
}
`

func synthesize(t *testing.T, src string, opts synth.Options) (*synth.Result, diagnostic.Diagnostics, error) {
	t.Helper()

	tree, err := tsparse.NewParser().Parse(context.Background(), tsparse.LangTypeScript, []byte(src))
	require.NoError(t, err)

	defer tree.Close()

	var diags diagnostic.Diagnostics

	unit := classify.Analyze(tree, &diags)
	require.NotNil(t, unit.Class)

	result, err := synth.Synthesize(unit.Class, opts, &diags)

	return result, diags, err
}

func TestSynthesize_FiveBindingsInPhaseOrder(t *testing.T) {
	t.Parallel()

	result, diags, err := synthesize(t, counterComponent, synth.DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, diags.Items)

	kinds := make([]string, 0, len(result.Bindings))
	for _, b := range result.Bindings {
		kinds = append(kinds, b.Kind)
	}

	assert.Equal(t, []string{
		synth.KindGroupDestructure,
		synth.KindState,
		synth.KindDerived,
		synth.KindWatch,
		synth.KindLifecycle,
	}, kinds)
}

func TestSynthesize_Code(t *testing.T) {
	t.Parallel()

	result, _, err := synthesize(t, counterComponent, synth.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, result.Bindings, 5)

	assert.Equal(t, "const { start } = toRefs(props);", result.Bindings[0].Code)
	assert.Equal(t, "const count = ref(start.value);", result.Bindings[1].Code)
	assert.Equal(t, `const label = computed({
  get(): string {
    return formatCount(count.value);
  },
  set(value: string) {
    count.value = Number(value);
  },
});`, result.Bindings[2].Code)
	assert.Equal(t, `function onStartChange(next: number) {
  count.value = next;
}
watch(start, onStartChange, { immediate: true });`, result.Bindings[3].Code)
	assert.Equal(t, `onMounted(() => {
  ctx.emit("ready", count.value);
});`, result.Bindings[4].Code)

	assert.Equal(t, []string{"start", "count", "label", "onStartChange"}, result.Exports())
	assert.Equal(t, []string{"toRefs", "ref", "computed", "watch", "onMounted"}, result.Uses())
	assert.Equal(t, []string{"ready"}, result.Emits)
}

func TestSynthesize_PhaseOrderIgnoresSourceOrder(t *testing.T) {
	t.Parallel()

	src := `export default class Shuffled extends Vue {
  mounted() {}
  @Watch("a") onA() {}
  run() {}
  get b() { return 1; }
  a = 1;
  @Prop() readonly p!: string;
}
`

	result, _, err := synthesize(t, src, synth.DefaultOptions())
	require.NoError(t, err)

	phases := make([]synth.Phase, 0, len(result.Bindings))
	for _, b := range result.Bindings {
		phases = append(phases, b.Phase)
	}

	assert.Equal(t, []synth.Phase{
		synth.PhaseProps, synth.PhaseState, synth.PhaseDerived,
		synth.PhaseFunction, synth.PhaseWatch, synth.PhaseLifecycle,
	}, phases)
}

func TestSynthesize_ReadOnlyDerivedAndState(t *testing.T) {
	t.Parallel()

	src := `export default class Plain extends Vue {
  items: string[] = [];
  empty?: number;

  get total(): number {
    return this.items.length;
  }
}
`

	result, _, err := synthesize(t, src, synth.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, result.Bindings, 3)

	assert.Equal(t, "const items = ref<string[]>([]);", result.Bindings[0].Code)
	assert.Equal(t, "const empty = ref<number>();", result.Bindings[1].Code)
	assert.Equal(t, "const total = computed((): number => {\n  return items.value.length;\n});", result.Bindings[2].Code)
}

func TestSynthesize_UnresolvedSetter(t *testing.T) {
	t.Parallel()

	src := `export default class Lonely extends Vue {
  set value(v: string) {
    console.log(v);
  }
}
`

	result, diags, err := synthesize(t, src, synth.DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, result.Bindings)

	require.Len(t, diags.Items, 1)
	assert.Equal(t, diagnostic.CodeUnresolvedSetter, diags.Items[0].Code)
	assert.Equal(t, "value", diags.Items[0].Member)

	strict := synth.DefaultOptions()
	strict.Strict = true

	_, _, err = synthesize(t, src, strict)
	require.ErrorIs(t, err, synth.ErrUnresolvedSetter)
}

func TestSynthesize_MethodsAndHooks(t *testing.T) {
	t.Parallel()

	src := `export default class Calls extends Vue {
  async load<T>(id: string): Promise<T> {
    return this.api.get(id);
  }

  created() {
    this.load("1");
  }

  beforeDestroy() {}
}
`

	result, _, err := synthesize(t, src, synth.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, result.Bindings, 3)

	assert.Equal(t, "async function load<T>(id: string): Promise<T> {\n  return api.get(id);\n}", result.Bindings[0].Code)
	assert.Equal(t, "(() => {\n  load(\"1\");\n})();", result.Bindings[1].Code)
	assert.Empty(t, result.Bindings[1].Uses)
	assert.Equal(t, "onBeforeUnmount(() => {});", result.Bindings[2].Code)
	assert.Equal(t, []string{"onBeforeUnmount"}, result.Bindings[2].Uses)
}

func TestSynthesize_EmitMethods(t *testing.T) {
	t.Parallel()

	src := `export default class Emitter extends Vue {
  @Emit()
  selectItem(item: Item) {
    return item.id;
  }

  @Emit("closed")
  close(reason: string) {
    this.open = false;
  }
}
`

	result, _, err := synthesize(t, src, synth.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, result.Bindings, 2)

	assert.Equal(t, `function selectItem(item: Item) {
  const result = (() => {
    return item.id;
  })();
  ctx.emit("select-item", result, item);
}`, result.Bindings[0].Code)
	assert.Equal(t, `function close(reason: string) {
  (() => {
    open = false;
  })();
  ctx.emit("closed", reason);
}`, result.Bindings[1].Code)
	assert.Equal(t, []string{"select-item", "closed"}, result.Emits)
}

func TestSynthesize_WatchTargets(t *testing.T) {
	t.Parallel()

	src := `export default class Watching extends Vue {
  form = { name: "" };

  @Watch("form.name", { deep: true })
  @Watch("$route")
  onChange() {}

  @Watch("external")
  onExternal() {}

  @Watch("form.name")
  onNameAgain() {}
}
`

	result, diags, err := synthesize(t, src, synth.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, result.Bindings, 4)

	assert.Equal(t, "function onChange() {}\nfunction onNameAgain() {}\nwatch(() => form.value.name, onNameAgain);",
		result.Bindings[1].Code)
	assert.Equal(t, []string{"onChange", "onNameAgain"}, result.Bindings[1].Exports)
	assert.Equal(t, "watch(() => ctx.root.$route, onChange);", result.Bindings[2].Code)
	assert.Empty(t, result.Bindings[2].Exports)
	assert.Equal(t, "function onExternal() {}\nwatch(external, onExternal);", result.Bindings[3].Code)

	dups := diags.Filter(diagnostic.SeverityWarning)
	require.Len(t, dups, 1)
	assert.Equal(t, diagnostic.CodeDuplicateWatch, dups[0].Code)
}

func TestSynthesize_RewriteDisabled(t *testing.T) {
	t.Parallel()

	opts := synth.DefaultOptions()
	opts.RewriteThis = false

	result, _, err := synthesize(t, counterComponent, opts)
	require.NoError(t, err)

	assert.Equal(t, "const count = ref(this.start);", result.Bindings[1].Code)
	assert.Contains(t, result.Bindings[3].Code, `watch(start, onStartChange, { immediate: true });`)
}

func TestSynthesize_WatchSourcesAreNeverStrings(t *testing.T) {
	t.Parallel()

	src := `@Component
export default class W extends Vue {
  form = { name: "" };

  helper() {}

  @Watch("form.name")
  onName() {}

  @Watch("helper")
  onHelper() {}

  @Watch("store.user.id")
  onUser() {}
}
`

	tests := []struct {
		name    string
		rewrite bool
		want    []string
	}{
		{
			name:    "rewrite",
			rewrite: true,
			want: []string{
				"watch(() => form.value.name, onName);",
				"watch(helper, onHelper);",
				"watch(() => store.user.id, onUser);",
			},
		},
		{
			name:    "no rewrite",
			rewrite: false,
			want: []string{
				"watch(() => form.name, onName);",
				"watch(helper, onHelper);",
				"watch(() => store.user.id, onUser);",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := synth.DefaultOptions()
			opts.RewriteThis = tt.rewrite

			result, _, err := synthesize(t, src, opts)
			require.NoError(t, err)

			var code strings.Builder
			for _, b := range result.Bindings {
				code.WriteString(b.Code + "\n")
			}

			for _, want := range tt.want {
				assert.Contains(t, code.String(), want)
			}

			assert.NotContains(t, code.String(), `watch("`)
		})
	}
}

func TestSynthesize_PropOptions(t *testing.T) {
	t.Parallel()

	src := `@Component({ props: { legacy: { type: String, default: "x" } } })
export default class Props extends Vue {
  @Prop() readonly plain!: string;
  @Prop({ default: () => [] }) readonly list!: string[];
  @Prop({ type: Number }) readonly typed!: number;
  @Prop({ required: true }) readonly untyped: any;
  @Prop(String) readonly ctor!: string;
  @Prop() readonly mode?: "a" | "b" | null;
  @Prop() readonly bare;
}
`

	result, _, err := synthesize(t, src, synth.DefaultOptions())
	require.NoError(t, err)

	props := result.Props
	assert.Equal(t, []string{"legacy", "plain", "list", "typed", "untyped", "ctor", "mode", "bare"}, props.Names())

	options := func(name string) string {
		entry, ok := props.Get(name)
		require.True(t, ok, name)

		return entry.Options
	}

	assert.Equal(t, `{ type: String, default: "x" }`, options("legacy"))
	assert.Equal(t, "{ type: String }", options("plain"))
	assert.Equal(t, "{ default: () => [], type: Array as PropType<string[]> }", options("list"))
	assert.Equal(t, "{ type: Number }", options("typed"))
	assert.Equal(t, "{ required: true, type: Object as PropType<any> }", options("untyped"))
	assert.Equal(t, "{ type: String }", options("ctor"))
	assert.Equal(t, `{ type: String as PropType<"a" | "b" | null> }`, options("mode"))
	assert.Equal(t, "{ type: null }", options("bare"))

	untyped, _ := props.Get("untyped")
	assert.True(t, untyped.Required)

	legacy, _ := props.Get("legacy")
	assert.Equal(t, `"x"`, legacy.Default)

	assert.Equal(t, []string{"PropType"}, props.Uses())
	assert.Equal(t, "const { legacy, plain, list, typed, untyped, ctor, mode, bare } = toRefs(props);",
		result.Bindings[0].Code)
}

func TestSynthesize_PropConstructorArgument(t *testing.T) {
	t.Parallel()

	src := `export default class Ctor extends Vue {
  @Prop(Number) readonly n!: string | null;
  @Prop([String, Number]) readonly loose;
}
`

	result, _, err := synthesize(t, src, synth.DefaultOptions())
	require.NoError(t, err)

	n, ok := result.Props.Get("n")
	require.True(t, ok)
	assert.Equal(t, "{ type: String as PropType<string | null> }", n.Options)

	loose, ok := result.Props.Get("loose")
	require.True(t, ok)
	assert.Equal(t, "{ type: [String, Number] }", loose.Options)

	assert.Equal(t, []string{"PropType"}, result.Props.Uses())
}

func TestSynthesize_Passthrough(t *testing.T) {
	t.Parallel()

	src := `export default class Raw extends Vue {
  $refs!: { input: HTMLInputElement };
  static count = 1;

  render(h) {
    return h("div");
  }
}
`

	result, _, err := synthesize(t, src, synth.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, result.Passthrough, 2)

	assert.True(t, result.Passthrough[0].Comment)
	assert.Equal(t, "// static count = 1;", result.Passthrough[0].Code)
	assert.Equal(t, "render(h) {\n  return h(\"div\");\n}", result.Passthrough[1].Code)
}

func TestHookFor(t *testing.T) {
	t.Parallel()

	hook, ok := synth.HookFor("destroyed")
	assert.True(t, ok)
	assert.Equal(t, "onUnmounted", hook)

	_, ok = synth.HookFor("created")
	assert.False(t, ok)
	assert.Equal(t, "watch", synth.PhaseWatch.String())
}

func TestSynthesize_ScriptSetup(t *testing.T) {
	t.Parallel()

	src := `@Component
export default class Panel extends Vue {
  @Prop() readonly title!: string;

  @Watch("title")
  onTitle(next: string) {
    this.$emit("renamed", next, this.$attrs.id);
  }

  @Emit("close")
  close() {}
}
`

	opts := synth.DefaultOptions()
	opts.ScriptSetup = true

	result, _, err := synthesize(t, src, opts)
	require.NoError(t, err)

	require.Len(t, result.Bindings, 3)
	assert.Equal(t, "const attrs = useAttrs();", result.Bindings[0].Code)
	assert.Equal(t, []string{"useAttrs"}, result.Bindings[0].Uses)
	assert.Contains(t, result.Bindings[1].Code, `emit("close");`)
	assert.Contains(t, result.Bindings[2].Code, `emit("renamed", next, attrs.id);`)
	assert.Contains(t, result.Bindings[2].Code, "watch(() => props.title, onTitle);")
	assert.Equal(t, 1, result.Props.Len())
	assert.NotContains(t, result.Uses(), "toRefs")
}
