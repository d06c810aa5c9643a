package classify_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/vueconv/pkg/classify"
	"github.com/Sumatoshi-tech/vueconv/pkg/diagnostic"
	"github.com/Sumatoshi-tech/vueconv/pkg/tsparse"
)

const counterComponent = `import { Component, Prop, Vue, Watch } from "vue-property-decorator";
import { formatCount } from "@/utils";

@Component({ name: "Counter", components: { Badge } })
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

func analyze(t *testing.T, src string) (*classify.Unit, diagnostic.Diagnostics) {
	t.Helper()

	parser := tsparse.NewParser()

	tree, err := parser.Parse(context.Background(), tsparse.LangTypeScript, []byte(src))
	require.NoError(t, err)

	defer tree.Close()

	var diags diagnostic.Diagnostics

	unit := classify.Analyze(tree, &diags)

	return unit, diags
}

func TestAnalyze_Buckets(t *testing.T) {
	t.Parallel()

	unit, _ := analyze(t, counterComponent)
	require.NotNil(t, unit.Class)

	class := unit.Class
	assert.Equal(t, "Counter", class.Name)

	require.Len(t, class.Props, 1)
	assert.Equal(t, "start", class.Props[0].Name)
	assert.Equal(t, "number", class.Props[0].Type)
	require.NotNil(t, class.Props[0].PropArg)
	assert.True(t, class.Props[0].PropArg.IsObject)

	require.Len(t, class.State, 1)
	assert.Equal(t, "count", class.State[0].Name)
	assert.Equal(t, "this.start", class.State[0].Init.Text)
	require.Len(t, class.State[0].Init.Refs, 1)
	assert.Equal(t, classify.ThisRef{Start: 0, End: 10, Name: "start"}, class.State[0].Init.Refs[0])

	require.Len(t, class.Getters, 1)
	assert.Equal(t, "string", class.Getters[0].Type)
	require.Len(t, class.Setters, 1)
	assert.Equal(t, "value: string", class.Setters[0].Params)

	require.Len(t, class.Watchers, 1)
	watcher := class.Watchers[0]
	assert.Equal(t, "onStartChange", watcher.Name)
	assert.Equal(t, []classify.Watch{{Target: "start", Options: "{ immediate: true }", Line: watcher.Watches[0].Line}}, watcher.Watches)
	assert.Equal(t, []string{"next"}, watcher.ParamNames)

	require.Len(t, class.Lifecycle, 1)
	assert.Equal(t, "mounted", class.Lifecycle[0].Name)
	assert.True(t, class.Lifecycle[0].Lifecycle)

	assert.Empty(t, class.Methods)
	assert.Equal(t, []string{"ready"}, class.Emits)
}

func TestAnalyze_ComponentOptionsAndStatements(t *testing.T) {
	t.Parallel()

	unit, _ := analyze(t, counterComponent)

	require.Len(t, unit.Class.Options, 2)
	assert.Equal(t, "name", unit.Class.Options[0].Key)
	assert.Equal(t, `"Counter"`, unit.Class.Options[0].Value)
	assert.Equal(t, "components", unit.Class.Options[1].Key)

	require.Len(t, unit.Statements, 2)
	assert.Contains(t, unit.Statements[0].Text, "vue-property-decorator")
	assert.Contains(t, unit.Statements[1].Text, "formatCount")
}

func TestAnalyze_NoClass(t *testing.T) {
	t.Parallel()

	unit, diags := analyze(t, "export const a = 1;\nexport default { name: 'A' };\n")

	assert.Nil(t, unit.Class)
	assert.Len(t, unit.Statements, 2)
	require.Len(t, diags.Items, 1)
	assert.Equal(t, diagnostic.CodeNoClass, diags.Items[0].Code)
}

func TestAnalyze_SeparateDefaultExportRemoved(t *testing.T) {
	t.Parallel()

	src := "@Component\nclass Plain extends Vue {\n  a = 1;\n}\nexport default Plain;\n"

	unit, _ := analyze(t, src)

	require.NotNil(t, unit.Class)
	assert.Equal(t, "Plain", unit.Class.Name)
	assert.Empty(t, unit.Statements)
}

func TestAnalyze_PrefersDefaultExportedClass(t *testing.T) {
	t.Parallel()

	src := "class Helper {}\n\n@Component\nexport default class Main extends Vue {\n  x = 1;\n}\n"

	unit, diags := analyze(t, src)

	require.NotNil(t, unit.Class)
	assert.Equal(t, "Main", unit.Class.Name)
	require.Len(t, unit.Statements, 1)
	assert.Equal(t, "class Helper {}", unit.Statements[0].Text)
	assert.Len(t, diags.Filter(diagnostic.SeverityWarning), 1)
}

func TestAnalyze_MemberShapes(t *testing.T) {
	t.Parallel()

	src := `@Component
export default class Shapes extends Vue {
  $refs!: { form: HTMLFormElement };
  static version = 2;
  @Inject() readonly api!: Api;

  render(h: any) {
    return h("div");
  }

  data() {
    return { legacy: true };
  }

  async load<T>(id: string, ...rest: T[]): Promise<void> {
    await this.fetch(id);
  }

  @Emit()
  selectItem(item: Item) {
    return item.id;
  }

  @Emit("closed")
  close() {}

  created() {}

  @Watch("a")
  @Watch("b.c", { deep: true })
  mounted() {}
}
`

	unit, diags := analyze(t, src)
	class := unit.Class
	require.NotNil(t, class)

	names := func(members []classify.Member) []string {
		out := make([]string, 0, len(members))
		for _, m := range members {
			out = append(out, m.Name)
		}

		return out
	}

	assert.Equal(t, []string{"$refs", "version", "render", "data"}, names(class.Passthrough))
	assert.True(t, class.Passthrough[0].Omitted)
	assert.True(t, class.Passthrough[1].Unsupported)
	assert.False(t, class.Passthrough[2].Unsupported)

	assert.Equal(t, []string{"api"}, names(class.State))
	assert.Equal(t, []string{"load", "selectItem", "close"}, names(class.Methods))
	assert.Equal(t, []string{"created"}, names(class.Lifecycle))
	assert.Equal(t, []string{"mounted"}, names(class.Watchers))

	load := class.Methods[0]
	assert.True(t, load.Async)
	assert.Equal(t, "<T>", load.TypeParams)
	assert.Equal(t, "Promise<void>", load.Type)
	assert.Equal(t, []string{"id", "...rest"}, load.ParamNames)

	assert.Equal(t, "select-item", class.Methods[1].EmitEvent)
	assert.Equal(t, "closed", class.Methods[2].EmitEvent)
	assert.Equal(t, []string{"select-item", "closed"}, class.Emits)

	require.Len(t, class.Watchers[0].Watches, 2)
	assert.Equal(t, "b.c", class.Watchers[0].Watches[1].Target)
	assert.Equal(t, "{ deep: true }", class.Watchers[0].Watches[1].Options)

	var unknown int

	for _, item := range diags.Items {
		if item.Code == diagnostic.CodeUnknownDecorator {
			unknown++
		}
	}

	assert.Equal(t, 1, unknown)
}

func TestAnalyze_ThisInsideNestedFunctionIgnored(t *testing.T) {
	t.Parallel()

	src := `export default class Scope extends Vue {
  run() {
    const self = this.a;
    setTimeout(function () { this.b; });
    setTimeout(() => this.c);
  }
}
`

	unit, _ := analyze(t, src)
	require.Len(t, unit.Class.Methods, 1)

	var refs []string
	for _, ref := range unit.Class.Methods[0].Body.Refs {
		refs = append(refs, ref.Name)
	}

	assert.Equal(t, []string{"a", "c"}, refs)
}

func TestAnalyze_ThisInsideObjectMethodIgnored(t *testing.T) {
	t.Parallel()

	src := `export default class Scope extends Vue {
  helper() {
    const o = { f() { return this.n; }, g: () => this.m };
    return o;
  }
}
`

	unit, _ := analyze(t, src)
	require.Len(t, unit.Class.Methods, 1)

	var refs []string
	for _, ref := range unit.Class.Methods[0].Body.Refs {
		refs = append(refs, ref.Name)
	}

	assert.Equal(t, []string{"m"}, refs)
	assert.True(t, unit.Class.Methods[0].ReturnsValue)
}

func TestParseDecoratorKind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, classify.DecoratorProp, classify.ParseDecoratorKind("Prop"))
	assert.Equal(t, classify.DecoratorWatch, classify.ParseDecoratorKind("Watch"))
	assert.Equal(t, classify.DecoratorEmit, classify.ParseDecoratorKind("Emit"))
	assert.Equal(t, classify.DecoratorComponent, classify.ParseDecoratorKind("Component"))
	assert.Equal(t, classify.DecoratorUnknown, classify.ParseDecoratorKind("Inject"))
	assert.Equal(t, "Watch", classify.DecoratorWatch.String())
	assert.Equal(t, "getter", classify.KindGetter.String())
}

func TestAnalyze_ComponentPropsAndEmitsOptions(t *testing.T) {
	t.Parallel()

	src := `@Component({
  props: { size: { type: Number, default: 1 }, label: String },
  emits: ["opened"],
  components: { Icon },
})
export default class Sized extends Vue {
  open() {
    this.$emit("opened");
    this.$emit("touched");
  }
}
`

	unit, _ := analyze(t, src)
	class := unit.Class
	require.NotNil(t, class)

	require.Len(t, class.OptionProps, 2)
	assert.Equal(t, "size", class.OptionProps[0].Key)
	assert.Equal(t, "{ type: Number, default: 1 }", class.OptionProps[0].Value)
	assert.Equal(t, "label", class.OptionProps[1].Key)

	require.Len(t, class.Options, 1)
	assert.Equal(t, "components", class.Options[0].Key)

	assert.Equal(t, []string{"opened", "touched"}, class.Emits)
}

func TestAnalyze_ArrayPropsOption(t *testing.T) {
	t.Parallel()

	unit, _ := analyze(t, "@Component({ props: [\"a\", \"b\"] })\nexport default class A extends Vue {}\n")

	require.NotNil(t, unit.Class)
	require.Len(t, unit.Class.OptionProps, 2)
	assert.Equal(t, "a", unit.Class.OptionProps[0].Key)
	assert.Empty(t, unit.Class.OptionProps[0].Value)
}

func TestAnalyze_ReturnsValue(t *testing.T) {
	t.Parallel()

	src := `export default class R extends Vue {
  a() { return 1; }
  b() { return; }
  c() { const f = () => { return 2; }; }
  d() { if (x) { return x; } }
}
`

	unit, _ := analyze(t, src)
	require.Len(t, unit.Class.Methods, 4)

	got := make([]bool, 0, 4)
	for _, m := range unit.Class.Methods {
		got = append(got, m.ReturnsValue)
	}

	assert.Equal(t, []bool{true, false, false, true}, got)
}

func TestAnalyze_UnknownDecoratorSuggestion(t *testing.T) {
	t.Parallel()

	src := `@Compnent
export default class S extends Vue {
  @Props() readonly a!: string;

  @Inject() readonly b!: string;
}
`

	_, diags := analyze(t, src)

	var messages []string

	for _, item := range diags.Items {
		if item.Code == diagnostic.CodeUnknownDecorator {
			messages = append(messages, item.Message)
		}
	}

	assert.Equal(t, []string{
		"class decorator @Compnent ignored; did you mean @Component?",
		"decorator @Props ignored; did you mean @Prop?",
		"decorator @Inject ignored",
	}, messages)
}
