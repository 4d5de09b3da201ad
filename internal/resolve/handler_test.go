package resolve_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-mustache/internal/resolve"
	"github.com/goliatone/go-mustache/pkg/scope"
)

type user struct {
	Name  string
	Email string
	tags  []string
}

func (u user) Title() string { return "Dr. " + u.Name }

func (u *user) Tags() []string { return u.tags }

func (u user) Flaky() (string, error) { return "", errors.New("backend down") }

func TestHandler_Lookup(t *testing.T) {
	h := resolve.New()

	cases := []struct {
		name  string
		tag   string
		stack scope.Stack
		want  any
	}{
		{
			name:  "map key",
			tag:   "a",
			stack: scope.NewStack(map[string]any{"a": 1}),
			want:  1,
		},
		{
			name:  "innermost scope wins",
			tag:   "a",
			stack: scope.NewStack(map[string]any{"a": 1}, map[string]any{"a": 2}),
			want:  2,
		},
		{
			name:  "falls back to outer scope",
			tag:   "a",
			stack: scope.NewStack(map[string]any{"a": 1}, map[string]any{"b": 2}),
			want:  1,
		},
		{
			name:  "map with nil value is still found",
			tag:   "a",
			stack: scope.NewStack(map[string]any{"a": 1}, map[string]any{"a": nil}),
			want:  nil,
		},
		{
			name:  "typed string map",
			tag:   "a",
			stack: scope.NewStack(map[string]int{"a": 3}),
			want:  3,
		},
		{
			name:  "struct field exact",
			tag:   "Name",
			stack: scope.NewStack(user{Name: "Ada"}),
			want:  "Ada",
		},
		{
			name:  "struct field case fold",
			tag:   "name",
			stack: scope.NewStack(user{Name: "Ada"}),
			want:  "Ada",
		},
		{
			name:  "exact field wins over fold-ambiguous siblings",
			tag:   "Name",
			stack: scope.NewStack(struct{ Name, NAME string }{Name: "exact", NAME: "upper"}),
			want:  "exact",
		},
		{
			name:  "ambiguous fold with no exact match is absent",
			tag:   "name",
			stack: scope.NewStack(struct{ Name, NAME string }{Name: "exact", NAME: "upper"}),
			want:  nil,
		},
		{
			name:  "method on value receiver",
			tag:   "Title",
			stack: scope.NewStack(user{Name: "Ada"}),
			want:  "Dr. Ada",
		},
		{
			name:  "method case fold",
			tag:   "title",
			stack: scope.NewStack(user{Name: "Ada"}),
			want:  "Dr. Ada",
		},
		{
			name:  "method on pointer receiver",
			tag:   "Tags",
			stack: scope.NewStack(&user{tags: []string{"x"}}),
			want:  []string{"x"},
		},
		{
			name:  "errored accessor is absent",
			tag:   "Flaky",
			stack: scope.NewStack(user{Name: "Ada"}),
			want:  nil,
		},
		{
			name:  "missing everywhere",
			tag:   "ghost",
			stack: scope.NewStack(map[string]any{"a": 1}, user{Name: "Ada"}),
			want:  nil,
		},
		{
			name:  "dotted path descends",
			tag:   "a.b.c",
			stack: scope.NewStack(map[string]any{"a": map[string]any{"b": map[string]any{"c": "deep"}}}),
			want:  "deep",
		},
		{
			name:  "dotted path through struct",
			tag:   "owner.name",
			stack: scope.NewStack(map[string]any{"owner": user{Name: "Ada"}}),
			want:  "Ada",
		},
		{
			name: "no mid-path fallback to outer scopes",
			tag:  "a.b",
			stack: scope.NewStack(
				map[string]any{"b": "outer"},
				map[string]any{"a": map[string]any{}},
			),
			want: nil,
		},
		{
			name:  "nil scope is skipped",
			tag:   "a",
			stack: scope.NewStack(nil, map[string]any{"a": 1}),
			want:  1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := h.Bind(tc.tag).Resolve(tc.stack)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("resolve mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// One binding resolved under a sequence of different stack shapes must
// re-resolve correctly each time the depth, scope types, or map key
// presence change.
func TestBinding_GuardedCache(t *testing.T) {
	b := resolve.New().Bind("v")

	withKey := map[string]any{"v": "map"}
	if got := b.Resolve(scope.NewStack(withKey)); got != "map" {
		t.Fatalf("first resolve = %v, want %q", got, "map")
	}

	// Same shape, changed content: the cached map lookup re-reads.
	withKey["v"] = "updated"
	if got := b.Resolve(scope.NewStack(withKey)); got != "updated" {
		t.Fatalf("after update = %v, want %q", got, "updated")
	}

	// Key removed: the presence guard fails and the miss is re-searched.
	delete(withKey, "v")
	if got := b.Resolve(scope.NewStack(withKey)); got != nil {
		t.Fatalf("after delete = %v, want nil", got)
	}

	// Key restored after a cached miss.
	withKey["v"] = "back"
	if got := b.Resolve(scope.NewStack(withKey)); got != "back" {
		t.Fatalf("after restore = %v, want %q", got, "back")
	}

	// Depth change: an inner scope shadows the previous winner.
	if got := b.Resolve(scope.NewStack(withKey, map[string]any{"v": "inner"})); got != "inner" {
		t.Fatalf("deeper stack = %v, want %q", got, "inner")
	}

	// Type change at the same depth.
	type holder struct{ V string }
	if got := b.Resolve(scope.NewStack(holder{V: "field"})); got != "field" {
		t.Fatalf("struct scope = %v, want %q", got, "field")
	}

	// And back to the original shape.
	if got := b.Resolve(scope.NewStack(withKey)); got != "back" {
		t.Fatalf("map scope again = %v, want %q", got, "back")
	}
}

func TestBinding_ConcurrentResolve(t *testing.T) {
	b := resolve.New().Bind("v")

	stacks := []struct {
		stack scope.Stack
		want  any
	}{
		{scope.NewStack(map[string]any{"v": "a"}), "a"},
		{scope.NewStack(map[string]any{"other": 1}, map[string]any{"v": "b"}), "b"},
		{scope.NewStack(user{Name: "x"}), nil},
		{scope.NewStack(map[string]any{"v": 7}, user{Name: "x"}), 7},
	}

	var g errgroup.Group
	for w := 0; w < 8; w++ {
		g.Go(func() error {
			for i := 0; i < 200; i++ {
				tc := stacks[i%len(stacks)]
				if got := b.Resolve(tc.stack); !cmp.Equal(tc.want, got) {
					return fmt.Errorf("resolve = %v, want %v", got, tc.want)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}
