package dsl

import (
	"strings"

	"github.com/aretw0/parley/internal/compiler"
	"github.com/aretw0/parley/pkg/script"
)

// Builder manages the script construction.
type Builder struct {
	*Block
	name   string
	header []string
	lines  []string
}

// New creates a new script builder.
func New(name string) *Builder {
	b := &Builder{name: name}
	b.Block = &Block{out: &b.lines}
	return b
}

// Name returns the script name given to New.
func (b *Builder) Name() string { return b.name }

// Header adds a variable assignment to the header, which runs before any
// dialogue and again on every restore.
func (b *Builder) Header(name, expression string) *Builder {
	b.header = append(b.header, "[set "+name+" "+expression+"]")
	return b
}

// Source renders the script text.
func (b *Builder) Source() string {
	var sb strings.Builder
	if len(b.header) > 0 {
		sb.WriteString("===\n")
		for _, l := range b.header {
			sb.WriteString(l + "\n")
		}
		sb.WriteString("===\n")
	}
	for _, l := range b.lines {
		sb.WriteString(l + "\n")
	}
	return sb.String()
}

// Build compiles the script. Compile errors are returned as a
// *domain.CompileError.
func (b *Builder) Build() (*script.Graph, error) {
	g, diags := compiler.Compile(b.name, []byte(b.Source()))
	if err := diags.Err(); err != nil {
		return nil, err
	}
	return g, nil
}

// Block writes lines at one indentation depth. Nested blocks passed to
// Choice, If and friends write deeper into the same script.
type Block struct {
	out   *[]string
	depth int
}

func (b *Block) emit(depth int, line string) {
	*b.out = append(*b.out, strings.Repeat("\t", depth)+line)
}

func (b *Block) nested(depth int, fn func(*Block)) {
	if fn != nil {
		fn(&Block{out: b.out, depth: depth})
	}
}

// Say adds a speaker line. Extra lines in text become continuation lines.
func (b *Block) Say(speaker, text string) *Block {
	lines := strings.Split(text, "\n")
	b.emit(b.depth, speaker+": "+strings.TrimSpace(lines[0]))
	for _, l := range lines[1:] {
		if l = strings.TrimSpace(l); l != "" {
			b.emit(b.depth, l)
		}
	}
	return b
}

// Choice adds an option to the preceding speaker line; body runs when the
// option is picked.
func (b *Block) Choice(text string, body func(*Block)) *Block {
	b.emit(b.depth+1, "* "+text)
	b.nested(b.depth+2, body)
	return b
}

// ChoiceIf adds an option that is only offered while condition holds.
func (b *Block) ChoiceIf(condition, text string, body func(*Block)) *Block {
	b.emit(b.depth+1, "[if "+condition+"]")
	b.emit(b.depth+2, "* "+text)
	b.nested(b.depth+3, body)
	b.emit(b.depth+1, "[endif]")
	return b
}

// Label marks the next line as a goto target.
func (b *Block) Label(name string) *Block {
	b.emit(b.depth, ":"+name)
	return b
}

// Goto jumps to a label.
func (b *Block) Goto(label string) *Block {
	b.emit(b.depth, "[goto "+label+"]")
	return b
}

// End finishes the dialogue.
func (b *Block) End() *Block {
	return b.Goto(script.EndLabel)
}

// Set assigns an expression to a variable.
func (b *Block) Set(name, expression string) *Block {
	b.emit(b.depth, "[set "+name+" "+expression+"]")
	return b
}

// Event raises a script event with the given argument expressions.
func (b *Block) Event(name string, args ...string) *Block {
	line := "[event " + name
	if len(args) > 0 {
		line += " " + strings.Join(args, ", ")
	}
	b.emit(b.depth, line+"]")
	return b
}

// If opens a conditional. Close it with EndIf.
func (b *Block) If(condition string, then func(*Block)) *Cond {
	b.emit(b.depth, "[if "+condition+"]")
	b.nested(b.depth+1, then)
	return &Cond{block: b}
}

// Cond is an open conditional.
type Cond struct {
	block *Block
}

// ElseIf adds another guarded branch.
func (c *Cond) ElseIf(condition string, then func(*Block)) *Cond {
	c.block.emit(c.block.depth, "[elseif "+condition+"]")
	c.block.nested(c.block.depth+1, then)
	return c
}

// Else adds the fallback branch and closes the conditional.
func (c *Cond) Else(then func(*Block)) *Block {
	c.block.emit(c.block.depth, "[else]")
	c.block.nested(c.block.depth+1, then)
	return c.EndIf()
}

// EndIf closes the conditional.
func (c *Cond) EndIf() *Block {
	c.block.emit(c.block.depth, "[endif]")
	return c.block
}
