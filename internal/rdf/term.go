package rdf

import "strings"

type TermKind uint8

const (
	// DefaultGraph is the zero Term.
	DefaultGraph TermKind = iota
	IRI
	BlankNode
	Literal
	TripleTerm
)

// Term is one RDF term. Value holds the IRI, the blank node label or the
// literal lexical form depending on Kind.
type Term struct {
	Kind     TermKind
	Value    string
	Language string
	Datatype string
	Triple   *Triple
}

func NewIRI(iri string) Term         { return Term{Kind: IRI, Value: iri} }
func NewBlankNode(label string) Term { return Term{Kind: BlankNode, Value: label} }
func NewLiteral(lex string) Term     { return Term{Kind: Literal, Value: lex} }
func NewLangLiteral(lex, lang string) Term {
	return Term{Kind: Literal, Value: lex, Language: lang}
}
func NewTypedLiteral(lex, datatype string) Term {
	return Term{Kind: Literal, Value: lex, Datatype: datatype}
}
func NewTripleTerm(t Triple) Term { return Term{Kind: TripleTerm, Triple: &t} }

func (t Term) IsDefaultGraph() bool { return t.Kind == DefaultGraph }

func (t Term) Equal(o Term) bool {
	if t.Kind != o.Kind || t.Value != o.Value || t.Language != o.Language || t.Datatype != o.Datatype {
		return false
	}
	if t.Triple == nil || o.Triple == nil {
		return t.Triple == o.Triple
	}
	return t.Triple.Equal(*o.Triple)
}

var lexEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`)

func (t Term) String() string {
	switch t.Kind {
	case IRI:
		return "<" + t.Value + ">"
	case BlankNode:
		return "_:" + t.Value
	case Literal:
		lex := `"` + lexEscaper.Replace(t.Value) + `"`
		switch {
		case t.Language != "":
			return lex + "@" + t.Language
		case t.Datatype != "":
			return lex + "^^<" + t.Datatype + ">"
		}
		return lex
	case TripleTerm:
		if t.Triple == nil {
			return "<< >>"
		}
		return "<< " + t.Triple.String() + " >>"
	default:
		return ""
	}
}
