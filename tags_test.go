package mustache_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	mustache "github.com/goliatone/go-mustache"
	"github.com/goliatone/go-mustache/pkg/node"
)

func TestTemplate_Tags(t *testing.T) {
	engine := mustache.New(mustache.WithPartials(mustache.PartialMap{"footer": "bye"}))
	pageTmpl, pageErr := engine.Compile("page", `{{title}}
{{#items}}{{name}} {{count}}{{/items}}
{{^items}}none{{/items}}
{{! not a structural tag }}
{{>footer}}`)
	tmpl := mustacheMust(t, pageTmpl, pageErr)

	want := []mustache.Tag{
		{Name: "title", Kind: node.KindVariable},
		{Name: "items", Kind: node.KindSection, Tags: []mustache.Tag{
			{Name: "name", Kind: node.KindVariable},
			{Name: "count", Kind: node.KindVariable},
		}},
		{Name: "items", Kind: node.KindInverted},
		{Name: "footer", Kind: node.KindPartial},
	}

	got := tmpl.Tags()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}
}
