// Package jellytest encodes Jelly RDF frames for tests.
package jellytest

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"jellyflow/internal/rdf"
)

const (
	Triples  = 1
	Quads    = 2
	Graphs   = 3
	XSDInt   = "http://www.w3.org/2001/XMLSchema#int"
	ExPrefix = "http://ex.org/"
)

// Term is one encoded statement position. The zero Term is omitted from
// the row, which makes the decoder repeat the previous value.
type Term struct {
	kind    int // 0 iri, 1 bnode, 2 literal, 3 quoted triple, 4 default graph
	payload []byte
	set     bool
}

func IRI(prefixID, nameID uint64) Term {
	var b []byte
	b = appendVarint(b, 1, prefixID)
	b = appendVarint(b, 2, nameID)
	return Term{kind: 0, payload: b, set: true}
}

func BNode(label string) Term { return Term{kind: 1, payload: []byte(label), set: true} }

func Lit(lex string) Term { return Term{kind: 2, payload: appendString(nil, 1, lex), set: true} }

func LangLit(lex, lang string) Term {
	return Term{kind: 2, payload: appendString(appendString(nil, 1, lex), 2, lang), set: true}
}

// TypedLit always writes the datatype id, including an invalid 0.
func TypedLit(lex string, datatypeID uint64) Term {
	b := protowire.AppendTag(appendString(nil, 1, lex), 3, protowire.VarintType)
	return Term{kind: 2, payload: protowire.AppendVarint(b, datatypeID), set: true}
}

func Quoted(s, p, o Term) Term {
	return Term{kind: 3, payload: statement(s, p, o, Term{}), set: true}
}

func DefaultGraph() Term { return Term{kind: 4, set: true} }

func Options(physical, names, prefixes, datatypes uint64) []byte {
	var b []byte
	b = appendString(b, 1, "test")
	b = appendVarint(b, 2, physical)
	b = appendVarint(b, 9, names)
	b = appendVarint(b, 10, prefixes)
	b = appendVarint(b, 11, datatypes)
	b = appendVarint(b, 15, 1)
	return row(1, b)
}

func Name(id uint64, value string) []byte     { return row(9, entry(id, value)) }
func Prefix(id uint64, value string) []byte   { return row(10, entry(id, value)) }
func Datatype(id uint64, value string) []byte { return row(11, entry(id, value)) }

func Triple(s, p, o Term) []byte  { return row(2, statement(s, p, o, Term{})) }
func Quad(s, p, o, g Term) []byte { return row(3, statement(s, p, o, g)) }

func GraphStart(g Term) []byte {
	num := map[int]protowire.Number{0: 1, 1: 2, 4: 3, 2: 4}[g.kind]
	return row(4, appendBytes(nil, num, g.payload))
}

func GraphEnd() []byte { return row(5, nil) }

func Namespace(name string, iri Term) []byte {
	return row(6, appendBytes(appendString(nil, 1, name), 2, iri.payload))
}

// Frame returns one length-delimited RdfStreamFrame holding rows.
func Frame(rows ...[]byte) []byte {
	var msg []byte
	for _, r := range rows {
		msg = appendBytes(msg, 1, r)
	}
	out := protowire.AppendVarint(nil, uint64(len(msg)))
	return append(out, msg...)
}

// Sample builds a QUADS stream of frames frames with perFrame quads each and
// returns the encoded bytes, the expected quads, and the size of every frame.
func Sample(frames, perFrame int) ([]byte, []rdf.Quad, []int) {
	var (
		data  []byte
		want  []rdf.Quad
		sizes []int
	)
	k := 0
	for f := 0; f < frames; f++ {
		var rows [][]byte
		if f == 0 {
			rows = append(rows, Options(Quads, 16, 4, 4), Prefix(1, ExPrefix), Datatype(1, XSDInt))
			for i := 1; i <= 8; i++ {
				rows = append(rows, Name(uint64(i), fmt.Sprintf("n%d", i)))
			}
		}
		for i := 0; i < perFrame; i++ {
			s, p := uint64(1+k%8), uint64(1+(k+1)%8)
			g, gt := DefaultGraph(), rdf.Term{}
			if k%2 == 0 {
				g, gt = IRI(1, 1), rdf.NewIRI(ExPrefix+"n1")
			}
			lex := fmt.Sprint(k)
			rows = append(rows, Quad(IRI(1, s), IRI(1, p), TypedLit(lex, 1), g))
			want = append(want, rdf.Quad{
				Subject:   rdf.NewIRI(fmt.Sprintf("%sn%d", ExPrefix, s)),
				Predicate: rdf.NewIRI(fmt.Sprintf("%sn%d", ExPrefix, p)),
				Object:    rdf.NewTypedLiteral(lex, XSDInt),
				Graph:     gt,
			})
			k++
		}
		fr := Frame(rows...)
		sizes = append(sizes, len(fr))
		data = append(data, fr...)
	}
	return data, want, sizes
}

func statement(s, p, o, g Term) []byte {
	var b []byte
	for i, t := range []Term{s, p, o} {
		if t.set {
			b = appendBytes(b, protowire.Number(i*4+t.kind+1), t.payload)
		}
	}
	if g.set {
		num := map[int]protowire.Number{0: 13, 1: 14, 4: 15, 2: 16}[g.kind]
		b = appendBytes(b, num, g.payload)
	}
	return b
}

func entry(id uint64, value string) []byte {
	return appendString(appendVarint(nil, 1, id), 2, value)
}

func row(kind protowire.Number, payload []byte) []byte {
	return appendBytes(nil, kind, payload)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	return appendBytes(b, num, []byte(s))
}

func appendBytes(b []byte, num protowire.Number, payload []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, payload)
}
