package mustache_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"golang.org/x/sync/errgroup"

	mustache "github.com/goliatone/go-mustache"
	"github.com/goliatone/go-mustache/pkg/node"
)

func TestRender(t *testing.T) {
	cases := []struct {
		name string
		src  string
		data []any
		want string
	}{
		{
			name: "interpolation",
			src:  "Hello, {{name}}!",
			data: []any{map[string]any{"name": "world"}},
			want: "Hello, world!",
		},
		{
			name: "html escaping",
			src:  "{{snippet}}",
			data: []any{map[string]any{"snippet": `<b>&</b>`}},
			want: "&lt;b&gt;&amp;&lt;/b&gt;",
		},
		{
			name: "triple mustache is raw",
			src:  "{{{snippet}}}",
			data: []any{map[string]any{"snippet": "<b>&</b>"}},
			want: "<b>&</b>",
		},
		{
			name: "ampersand is raw",
			src:  "{{&snippet}}",
			data: []any{map[string]any{"snippet": "<b>"}},
			want: "<b>",
		},
		{
			name: "missing renders empty",
			src:  "[{{gone}}]",
			data: []any{map[string]any{}},
			want: "[]",
		},
		{
			name: "section over list",
			src:  "{{#items}}{{name}} {{/items}}",
			data: []any{map[string]any{"items": []map[string]any{{"name": "a"}, {"name": "b"}}}},
			want: "a b ",
		},
		{
			name: "section pushes scope",
			src:  "{{#user}}{{name}} of {{org}}{{/user}}",
			data: []any{map[string]any{"org": "acme", "user": map[string]any{"name": "Ada"}}},
			want: "Ada of acme",
		},
		{
			name: "inverted section",
			src:  "{{^items}}empty{{/items}}",
			data: []any{map[string]any{"items": []any{}}},
			want: "empty",
		},
		{
			name: "dotted name",
			src:  "{{a.b.c}}",
			data: []any{map[string]any{"a": map[string]any{"b": map[string]any{"c": "deep"}}}},
			want: "deep",
		},
		{
			name: "struct data",
			src:  "{{Name}} ({{name}})",
			data: []any{struct{ Name string }{Name: "Ada"}},
			want: "Ada (Ada)",
		},
		{
			name: "multiple data values stack outermost first",
			src:  "{{a}}{{b}}",
			data: []any{map[string]any{"a": "outer", "b": "outer"}, map[string]any{"b": "inner"}},
			want: "outerinner",
		},
		{
			name: "variable lambda result is parsed",
			src:  "Hello, {{lambda}}!",
			data: []any{map[string]any{
				"planet": "world",
				"lambda": func() string { return "{{planet}}" },
			}},
			want: "Hello, world!",
		},
		{
			name: "variable lambda result is escaped",
			src:  "{{lambda}}",
			data: []any{map[string]any{"lambda": func() string { return ">" }}},
			want: "&gt;",
		},
		{
			name: "section lambda wraps rendered inner",
			src:  "{{#bold}}{{name}}{{/bold}}",
			data: []any{map[string]any{
				"name": "x",
				"bold": func(text string) string { return "<b>" + text + "</b>" },
			}},
			want: "<b>x</b>",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := mustache.Render(tc.src, tc.data...)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if got != tc.want {
				t.Fatalf("output = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestEngine_CustomDelimiters(t *testing.T) {
	engine := mustache.New(mustache.WithDelimiters("<%", "%>"))
	got, err := engine.Render("<%greeting%>, <%name%>", map[string]any{
		"greeting": "hi",
		"name":     "you",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "hi, you"; got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

func TestEngine_StrictMissing(t *testing.T) {
	engine := mustache.New(mustache.WithStrictMissing(true))

	if _, err := engine.Render("{{present}}", map[string]any{"present": 1}); err != nil {
		t.Fatalf("render with value: %v", err)
	}

	_, err := engine.Render("{{gone}}", map[string]any{})
	if !errors.Is(err, node.ErrMissingValue) {
		t.Fatalf("error = %v, want ErrMissingValue", err)
	}
}

func TestEngine_CustomEscape(t *testing.T) {
	engine := mustache.New(mustache.WithEscape(strings.ToUpper))
	got, err := engine.Render("{{v}}", map[string]any{"v": "shout"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "SHOUT"; got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

func TestEngine_CompileError(t *testing.T) {
	_, err := mustache.Compile("broken", "{{#open}}never closed")
	if err == nil {
		t.Fatal("compile succeeded")
	}
	var perr *mustache.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T, want *ParseError", err)
	}
	if perr.Name != "broken" || perr.Line != 1 {
		t.Fatalf("position = %s:%d, want broken:1", perr.Name, perr.Line)
	}
}

func TestEngine_CompileReader(t *testing.T) {
	tmpl, err := mustache.Default().CompileReader("reader", strings.NewReader("{{v}}"))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got, err := tmpl.Render(map[string]any{"v": "ok"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "ok" {
		t.Fatalf("output = %q, want %q", got, "ok")
	}
}

func TestMust_PanicsOnError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Must did not panic")
		}
	}()
	mustache.Must(mustache.Compile("bad", "{{"))
}

// One compiled template renders concurrently against independent data.
func TestTemplate_ConcurrentRender(t *testing.T) {
	tmpl := mustache.Must(mustache.Compile("worker", "{{#jobs}}[{{.}}]{{/jobs}}"))

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		i := i
		g.Go(func() error {
			jobs := []any{i, i + 1}
			want := fmt.Sprintf("[%d][%d]", i, i+1)
			got, err := tmpl.Render(map[string]any{"jobs": jobs})
			if err != nil {
				return err
			}
			if got != want {
				return fmt.Errorf("output = %q, want %q", got, want)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}
