package template

import (
	"strings"
)

// indent is the per-level indentation of rendered blocks.
const indent = "    "

// Node is one element of a site definition.
type Node interface {
	write(b *strings.Builder, depth int)
}

// Directive is a single `name arg...;` statement.
type Directive struct {
	Name string
	Args []string
}

func (d Directive) write(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat(indent, depth))
	b.WriteString(d.Name)
	for _, a := range d.Args {
		b.WriteByte(' ')
		b.WriteString(a)
	}
	b.WriteString(";\n")
}

// Block is a `name arg... { ... }` context.
type Block struct {
	Name     string
	Args     []string
	Children []Node
}

func (bl *Block) write(b *strings.Builder, depth int) {
	pad := strings.Repeat(indent, depth)
	b.WriteString(pad)
	b.WriteString(bl.Name)
	for _, a := range bl.Args {
		b.WriteByte(' ')
		b.WriteString(a)
	}
	b.WriteString(" {\n")
	for _, c := range bl.Children {
		c.write(b, depth+1)
	}
	b.WriteString(pad)
	b.WriteString("}\n")
}

// Add appends a directive and returns the block for chaining.
func (bl *Block) Add(name string, args ...string) *Block {
	bl.Children = append(bl.Children, Directive{Name: name, Args: args})
	return bl
}

// Nest appends a child block and returns it.
func (bl *Block) Nest(name string, args ...string) *Block {
	child := &Block{Name: name, Args: args}
	bl.Children = append(bl.Children, child)
	return child
}

// Blank appends an empty line.
func (bl *Block) Blank() *Block {
	bl.Children = append(bl.Children, blank{})
	return bl
}

type blank struct{}

func (blank) write(b *strings.Builder, _ int) {
	b.WriteByte('\n')
}

// Comment is a `# text` line.
type Comment string

func (c Comment) write(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat(indent, depth))
	b.WriteString("# ")
	b.WriteString(string(c))
	b.WriteByte('\n')
}

// Document is an ordered list of top-level nodes.
type Document struct {
	Nodes []Node
}

// String renders the document.
func (d *Document) String() string {
	var b strings.Builder
	for i, n := range d.Nodes {
		if i > 0 {
			if _, ok := n.(*Block); ok {
				b.WriteByte('\n')
			}
		}
		n.write(&b, 0)
	}
	return b.String()
}

// Value makes an operator-supplied string safe to place as a single
// argument. Plain tokens pass through; anything else is double-quoted with
// quotes and backslashes escaped.
func Value(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
			r == '.' || r == '-' || r == '_' || r == ':' || r == '/')
	}) < 0 {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
