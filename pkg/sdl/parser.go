package sdl

import (
	"io"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

var (
	// sdlLexer defines the lexer for the schema definition language.
	sdlLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Comment", Pattern: `#[^\r\n]*`},
		{Name: "String", Pattern: `'([^'\\]|\\.)*'`},
		{Name: "Number", Pattern: `\d+(\.\d*)?`},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*(::[a-zA-Z_][a-zA-Z0-9_]*)*`},
		{Name: "Assign", Pattern: `:=`},
		{Name: "Punct", Pattern: `[{}();:,.=+\-*/%<>!]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	// parser is the participle parser instance for SDL documents.
	parser = participle.MustBuild[Document](
		participle.Lexer(sdlLexer),
		participle.Elide("Comment", "Whitespace"),
		participle.UseLookahead(3),
	)
)

type (
	// Document is a parsed schema definition: an ordered list of top-level
	// declarations.
	Document struct {
		Decls []*Decl `parser:"@@*"`
	}

	// Decl is one schema declaration. Top-level declarations may carry an
	// extends clause; nested declarations instead declare their target type,
	// an expression clause, or a block of their own children.
	Decl struct {
		Pos lexer.Position

		Abstract  bool    `parser:"@'abstract'?"`
		Inherited bool    `parser:"@'inherited'?"`
		Delegated bool    `parser:"@'delegated'?"`
		Required  bool    `parser:"@'required'?"`
		Kind      string  `parser:"@('type' | 'property' | 'link' | 'constraint' | 'index')"`
		Name      string  `parser:"@Ident"`
		Extends   []string `parser:"('extends' @Ident (',' @Ident)*)?"`
		Target    *string `parser:"(':' @Ident)?"`
		Default   *string `parser:"(Assign @(String | Number | Ident))?"`
		Expr      *string `parser:"('on'? '(' @(~')')+ ')')?"`
		Body      []*Decl `parser:"('{' @@* '}' | ';')"`
	}
)

// Parse parses an SDL document from r. name is used in source locations.
func Parse(name string, r io.Reader) (*Document, error) {
	doc, err := parser.Parse(name, r)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse schema %s", name)
	}
	return doc, nil
}

// ParseString parses an SDL document from a string.
func ParseString(name, input string) (*Document, error) {
	return Parse(name, strings.NewReader(input))
}
