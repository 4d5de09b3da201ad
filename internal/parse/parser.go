// Package parse compiles template source into an executable node tree. It
// performs a single pass under the current delimiter pair, attaches literal
// runs to the preceding structural node, applies the standalone-line rules
// for block-level tags, and records per-node compile-time delimiters so the
// tree can reconstruct its own source.
package parse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-mustache/pkg/node"
)

// Parser compiles template source under a fixed engine configuration and
// starting delimiter pair. A Parser is stateless across Parse calls and safe
// for concurrent use.
type Parser struct {
	cfg    node.Config
	delims node.Delims
}

// New returns a parser. Empty delimiters fall back to the mustache default.
func New(cfg node.Config, delims node.Delims) *Parser {
	if delims.Open == "" || delims.Close == "" {
		delims = node.DefaultDelims
	}
	return &Parser{cfg: cfg, delims: delims}
}

// Parse compiles src into a fresh tree. name labels positional errors.
func (p *Parser) Parse(name, src string) (*node.Root, error) {
	root := node.NewRoot(p.delims)
	if err := p.ParseInto(root, name, src); err != nil {
		return nil, err
	}
	return root, nil
}

// ParseInto compiles src as the children of an existing unsealed root. The
// engine uses this to register a placeholder tree before parsing a partial
// body, which is what lets recursive partials resolve to the tree that is
// mid-compilation.
func (p *Parser) ParseInto(root *node.Root, name, src string) error {
	s := &scan{name: name, src: src, cfg: p.cfg, delims: p.delims, bol: true}
	return s.run(root)
}

type scan struct {
	name   string
	src    string
	pos    int
	bol    bool // the unconsumed input starts at a beginning of line
	cfg    node.Config
	delims node.Delims
	frames []*frame
}

// frame is one open (sub)tree: the root frame, or an open section awaiting
// its close tag.
type frame struct {
	name       string
	inverted   bool
	tree       *node.Root
	children   []node.Node
	last       node.Node
	openLine   int
	innerStart int
	delims     node.Delims
}

func (s *scan) run(root *node.Root) error {
	s.frames = []*frame{{tree: root}}

	for s.pos < len(s.src) {
		rel := strings.Index(s.src[s.pos:], s.delims.Open)
		if rel < 0 {
			break
		}
		litStart := s.pos
		tagOpen := s.pos + rel

		content, tagEnd, err := s.tagContent(tagOpen)
		if err != nil {
			return err
		}
		if err := s.dispatch(s.src[litStart:tagOpen], litStart, tagOpen, content, tagEnd); err != nil {
			return err
		}
	}
	s.emit(s.src[s.pos:])

	if len(s.frames) > 1 {
		f := s.frames[len(s.frames)-1]
		return s.errAt(f.openLine, fmt.Errorf("unclosed section %q", f.name))
	}
	top := s.frames[0]
	top.tree.SetChildren(top.children)
	return nil
}

// tagContent extracts the text between the delimiters of the tag opening at
// tagOpen. Triple-mustache tags close with "}" ahead of the close delimiter;
// the returned content keeps the "{" sigil so dispatch sees it.
func (s *scan) tagContent(tagOpen int) (string, int, error) {
	start := tagOpen + len(s.delims.Open)
	if strings.HasPrefix(s.src[start:], "{") {
		end := strings.Index(s.src[start:], "}"+s.delims.Close)
		if end < 0 {
			return "", 0, s.errAt(s.lineAt(tagOpen), errors.New("unclosed tag"))
		}
		return s.src[start : start+end], start + end + 1 + len(s.delims.Close), nil
	}
	end := strings.Index(s.src[start:], s.delims.Close)
	if end < 0 {
		return "", 0, s.errAt(s.lineAt(tagOpen), errors.New("unclosed tag"))
	}
	return s.src[start : start+end], start + end + len(s.delims.Close), nil
}

func (s *scan) dispatch(literal string, litStart, tagOpen int, content string, tagEnd int) error {
	if strings.TrimSpace(content) == "" {
		return s.errAt(s.lineAt(tagOpen), errors.New("empty tag"))
	}

	var sigil byte
	var name string
	switch content[0] {
	case '#', '^', '/', '>', '&', '{':
		sigil = content[0]
		name = strings.TrimSpace(content[1:])
	case '!', '=':
		sigil = content[0]
	default:
		name = strings.TrimSpace(content)
	}

	// Standalone-line handling: a block-level tag alone on its line (only
	// blanks around it) swallows the line's leading whitespace and its
	// newline. Variables are never standalone-trimmed. A standalone
	// partial keeps the whitespace as its output indentation.
	stand := false
	var prefix string
	keep := len(literal)
	switch sigil {
	case '#', '^', '/', '>', '!', '=':
		nl := strings.LastIndexByte(literal, '\n')
		pfx := literal[nl+1:]
		if (nl >= 0 || s.bol) && isBlank(pfx) {
			j := tagEnd
			for j < len(s.src) && (s.src[j] == ' ' || s.src[j] == '\t') {
				j++
			}
			switch {
			case j >= len(s.src):
				stand, tagEnd = true, j
			case s.src[j] == '\n':
				stand, tagEnd = true, j+1
			case s.src[j] == '\r' && j+1 < len(s.src) && s.src[j+1] == '\n':
				stand, tagEnd = true, j+2
			}
			if stand {
				prefix = pfx
				keep = nl + 1
			}
		}
	}
	s.emit(literal[:keep])

	switch sigil {
	case 0, '&', '{':
		if name == "" {
			return s.errAt(s.lineAt(tagOpen), errors.New("empty tag"))
		}
		form := node.FormEscaped
		switch sigil {
		case '&':
			form = node.FormRaw
		case '{':
			form = node.FormTriple
		}
		s.add(node.NewVariable(s.cfg, name, form, s.delims))
	case '#', '^':
		if name == "" {
			return s.errAt(s.lineAt(tagOpen), errors.New("empty tag"))
		}
		s.frames = append(s.frames, &frame{
			name:       name,
			inverted:   sigil == '^',
			tree:       node.NewRoot(s.delims),
			openLine:   s.lineAt(tagOpen),
			innerStart: tagEnd,
			delims:     s.delims,
		})
	case '/':
		if len(s.frames) == 1 {
			return s.errAt(s.lineAt(tagOpen), fmt.Errorf("unexpected {{/%s}}", name))
		}
		f := s.frames[len(s.frames)-1]
		if name != f.name {
			return s.errAt(s.lineAt(tagOpen), fmt.Errorf("unexpected {{/%s}}, expected %q", name, f.name))
		}
		s.frames = s.frames[:len(s.frames)-1]
		f.tree.SetChildren(f.children)
		inner := s.src[f.innerStart : litStart+keep]
		if f.inverted {
			s.add(node.NewInverted(s.cfg, f.name, f.delims, f.tree))
		} else {
			s.add(node.NewSection(s.cfg, f.name, f.delims, f.tree, inner))
		}
	case '>':
		if name == "" {
			return s.errAt(s.lineAt(tagOpen), errors.New("empty tag"))
		}
		s.add(node.NewPartial(s.cfg, name, s.delims, prefix))
	case '!':
		s.add(node.NewComment(content[1:], s.delims))
	case '=':
		next, err := parseDelims(content)
		if err != nil {
			return s.errAt(s.lineAt(tagOpen), err)
		}
		s.add(node.NewSetDelims(content, next, s.delims))
		s.delims = next
	}

	s.pos = tagEnd
	s.bol = stand
	return nil
}

// emit attaches a literal run to the last node of the open frame, or opens
// the frame with a text node when no node precedes it.
func (s *scan) emit(text string) {
	if text == "" {
		return
	}
	f := s.frames[len(s.frames)-1]
	if f.last != nil {
		f.last.Append(text)
		return
	}
	t := node.NewText(text, s.delims)
	f.children = append(f.children, t)
	f.last = t
}

func (s *scan) add(n node.Node) {
	f := s.frames[len(s.frames)-1]
	f.children = append(f.children, n)
	f.last = n
}

func (s *scan) errAt(line int, err error) error {
	return &Error{Name: s.name, Line: line, Err: err}
}

func (s *scan) lineAt(pos int) int {
	return 1 + strings.Count(s.src[:pos], "\n")
}

// parseDelims reads a delimiter declaration body, "=<% %>=" style.
func parseDelims(content string) (node.Delims, error) {
	if len(content) < 2 || content[0] != '=' || content[len(content)-1] != '=' {
		return node.Delims{}, errors.New("invalid delimiter declaration")
	}
	fields := strings.Fields(content[1 : len(content)-1])
	if len(fields) != 2 {
		return node.Delims{}, errors.New("invalid delimiter declaration")
	}
	return node.Delims{Open: fields[0], Close: fields[1]}, nil
}

func isBlank(text string) bool {
	for i := 0; i < len(text); i++ {
		if text[i] != ' ' && text[i] != '\t' {
			return false
		}
	}
	return true
}
