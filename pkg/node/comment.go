package node

import (
	"fmt"
	"io"
)

// Comment is the {{!body}} tag: it contributes nothing to output beyond its
// trailing text, but Identity re-emits the tag with its verbatim body so
// reconstruction stays exact.
type Comment struct {
	Base

	body string
}

// NewComment returns a comment node; body is the verbatim text after the
// "!" marker, untrimmed.
func NewComment(body string, delims Delims) *Comment {
	return &Comment{
		Base: newBase(Config{}, "", KindComment, "", "", delims, nil),
		body: body,
	}
}

// Identity re-emits the comment tag, then the trailing text.
func (c *Comment) Identity(w io.Writer) error {
	if _, err := io.WriteString(w, c.delims.Open+"!"+c.body+c.delims.Close); err != nil {
		return fmt.Errorf("node: write comment tag: %w", err)
	}
	_, err := c.appendTrailing(w)
	return err
}

// Clone returns a shallow duplicate of the comment node.
func (c *Comment) Clone() Node {
	dup := *c
	return &dup
}

// SetDelims is the {{=<% %>=}} tag: a compile-time delimiter change. It
// executes to its trailing text only; Identity re-emits the declaration so
// the tags that follow reconstruct under the delimiters they were actually
// written with.
type SetDelims struct {
	Base

	decl string
	next Delims
}

// NewSetDelims returns a delimiter-change node; decl is the verbatim tag
// body including both "=" markers, next the pair it switches to.
func NewSetDelims(decl string, next, delims Delims) *SetDelims {
	return &SetDelims{
		Base: newBase(Config{}, "", KindDelims, "", "", delims, nil),
		decl: decl,
		next: next,
	}
}

// Next returns the delimiter pair this tag switches the template to.
func (d *SetDelims) Next() Delims { return d.next }

// Identity re-emits the delimiter-change tag, then the trailing text.
func (d *SetDelims) Identity(w io.Writer) error {
	if _, err := io.WriteString(w, d.delims.Open+d.decl+d.delims.Close); err != nil {
		return fmt.Errorf("node: write delimiter tag: %w", err)
	}
	_, err := d.appendTrailing(w)
	return err
}

// Clone returns a shallow duplicate of the delimiter-change node.
func (d *SetDelims) Clone() Node {
	dup := *d
	return &dup
}
