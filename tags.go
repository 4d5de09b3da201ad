package mustache

import "github.com/goliatone/go-mustache/pkg/node"

// Tag describes one structural tag of a compiled template: a variable,
// section, inverted section, or partial. Sections carry their nested tags.
// Host tooling (and the CLI's interactive mode) uses this to discover what
// context a template expects without rendering it.
type Tag struct {
	Name string
	Kind node.Kind
	Tags []Tag
}

// Tags reports the template's structural tags in document order.
func (t *Template) Tags() []Tag {
	return collectTags(t.root.Children())
}

func collectTags(children []node.Node) []Tag {
	var out []Tag
	for _, child := range children {
		switch child.Kind() {
		case node.KindVariable, node.KindPartial:
			out = append(out, Tag{Name: child.Name(), Kind: child.Kind()})
		case node.KindSection, node.KindInverted:
			out = append(out, Tag{
				Name: child.Name(),
				Kind: child.Kind(),
				Tags: collectTags(child.Children()),
			})
		}
	}
	return out
}
