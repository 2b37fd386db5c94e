package jelly

import (
	"google.golang.org/protobuf/encoding/protowire"

	"jellyflow/internal/logging"
	"jellyflow/internal/rdf"
)

// Field numbers of the Jelly RDF protobuf schema.
const (
	frameRows protowire.Number = 1

	rowOptions    protowire.Number = 1
	rowTriple     protowire.Number = 2
	rowQuad       protowire.Number = 3
	rowGraphStart protowire.Number = 4
	rowGraphEnd   protowire.Number = 5
	rowNamespace  protowire.Number = 6
	rowName       protowire.Number = 9
	rowPrefix     protowire.Number = 10
	rowDatatype   protowire.Number = 11

	optStreamName   protowire.Number = 1
	optPhysical     protowire.Number = 2
	optGeneralized  protowire.Number = 3
	optRDFStar      protowire.Number = 4
	optMaxNames     protowire.Number = 9
	optMaxPrefixes  protowire.Number = 10
	optMaxDatatypes protowire.Number = 11
	optLogical      protowire.Number = 14
	optVersion      protowire.Number = 15
)

type PhysicalType uint64

const (
	PhysicalUnspecified PhysicalType = iota
	PhysicalTriples
	PhysicalQuads
	PhysicalGraphs
)

func (p PhysicalType) String() string {
	switch p {
	case PhysicalTriples:
		return "triples"
	case PhysicalQuads:
		return "quads"
	case PhysicalGraphs:
		return "graphs"
	default:
		return "unspecified"
	}
}

// StreamOptions is the first row of every Jelly stream.
type StreamOptions struct {
	Name         string
	Physical     PhysicalType
	Logical      uint64
	Generalized  bool
	RDFStar      bool
	MaxNames     uint64
	MaxPrefixes  uint64
	MaxDatatypes uint64
	Version      uint64
}

// slot holds the previous value of one statement position.
type slot struct {
	term rdf.Term
	set  bool
}

// streamState is everything a stream carries across frames.
type streamState struct {
	opts      *StreamOptions
	names     *lookup
	prefixes  *lookup
	datatypes *lookup

	s, p, o, g slot
	graph      rdf.Term
}

func (st *streamState) row(f field, lim Limits, out func(s, p, o, g rdf.Term)) error {
	b, err := f.bytes()
	if err != nil {
		return err
	}
	return walk(b, f.data, func(r field) error {
		if r.num == rowOptions {
			return st.options(r, lim)
		}
		if st.opts == nil {
			return decodeErr(r.at, "row %d before stream options", r.num)
		}
		switch r.num {
		case rowTriple:
			return st.triple(r, out)
		case rowQuad:
			return st.quad(r, out)
		case rowGraphStart:
			return st.graphStart(r)
		case rowGraphEnd:
			st.graph = rdf.Term{}
			return nil
		case rowNamespace:
			return st.namespace(r)
		case rowName:
			return st.entry(r, st.names)
		case rowPrefix:
			return st.entry(r, st.prefixes)
		case rowDatatype:
			return st.entry(r, st.datatypes)
		default:
			return decodeErr(r.at, "unknown row kind %d", r.num)
		}
	})
}

func (st *streamState) options(f field, lim Limits) error {
	b, err := f.bytes()
	if err != nil {
		return err
	}
	if st.opts != nil {
		logging.L().Debug("jelly: ignoring repeated stream options", "offset", f.at)
		return nil
	}
	var o StreamOptions
	err = walk(b, f.data, func(x field) error {
		var err error
		switch x.num {
		case optStreamName:
			o.Name, err = x.str()
		case optPhysical:
			var v uint64
			v, err = x.uint()
			o.Physical = PhysicalType(v)
		case optGeneralized:
			var v uint64
			v, err = x.uint()
			o.Generalized = v != 0
		case optRDFStar:
			var v uint64
			v, err = x.uint()
			o.RDFStar = v != 0
		case optMaxNames:
			o.MaxNames, err = x.uint()
		case optMaxPrefixes:
			o.MaxPrefixes, err = x.uint()
		case optMaxDatatypes:
			o.MaxDatatypes, err = x.uint()
		case optLogical:
			o.Logical, err = x.uint()
		case optVersion:
			o.Version, err = x.uint()
		}
		return err
	})
	if err != nil {
		return err
	}

	switch {
	case o.Physical == PhysicalUnspecified || o.Physical > PhysicalGraphs:
		return decodeErr(f.at, "physical stream type %d is not supported", uint64(o.Physical))
	case o.MaxNames > lim.MaxNames:
		return decodeErr(f.at, "name table too large (%d > %d)", o.MaxNames, lim.MaxNames)
	case o.MaxPrefixes > lim.MaxPrefixes:
		return decodeErr(f.at, "prefix table too large (%d > %d)", o.MaxPrefixes, lim.MaxPrefixes)
	case o.MaxDatatypes > lim.MaxDatatypes:
		return decodeErr(f.at, "datatype table too large (%d > %d)", o.MaxDatatypes, lim.MaxDatatypes)
	}

	st.opts = &o
	st.names = newLookup("name", int(o.MaxNames))
	st.prefixes = newLookup("prefix", int(o.MaxPrefixes))
	st.datatypes = newLookup("datatype", int(o.MaxDatatypes))
	logging.L().Debug("jelly: stream options", "name", o.Name, "physical", o.Physical.String(),
		"names", o.MaxNames, "prefixes", o.MaxPrefixes, "datatypes", o.MaxDatatypes)
	return nil
}

func (st *streamState) entry(f field, l *lookup) error {
	b, err := f.bytes()
	if err != nil {
		return err
	}
	var (
		id    uint64
		value string
	)
	err = walk(b, f.data, func(x field) error {
		var err error
		switch x.num {
		case 1:
			id, err = x.uint()
		case 2:
			value, err = x.str()
		}
		return err
	})
	if err != nil {
		return err
	}
	if err := l.set(id, value); err != nil {
		return decodeErr(f.at, "%v", err)
	}
	return nil
}

func (st *streamState) namespace(f field) error {
	b, err := f.bytes()
	if err != nil {
		return err
	}
	var (
		name string
		iri  rdf.Term
	)
	err = walk(b, f.data, func(x field) error {
		var err error
		switch x.num {
		case 1:
			name, err = x.str()
		case 2:
			iri, err = st.iri(x)
		}
		return err
	})
	if err == nil {
		logging.L().Debug("jelly: namespace", "name", name, "iri", iri.Value)
	}
	return err
}

func (st *streamState) triple(f field, out func(s, p, o, g rdf.Term)) error {
	if st.opts.Physical == PhysicalQuads {
		return decodeErr(f.at, "triple row in a %s stream", st.opts.Physical)
	}
	t, err := st.statement(f, false)
	if err != nil {
		return err
	}
	out(t.Subject, t.Predicate, t.Object, st.graph)
	return nil
}

func (st *streamState) quad(f field, out func(s, p, o, g rdf.Term)) error {
	if st.opts.Physical != PhysicalQuads {
		return decodeErr(f.at, "quad row in a %s stream", st.opts.Physical)
	}
	t, err := st.statement(f, true)
	if err != nil {
		return err
	}
	out(t.Subject, t.Predicate, t.Object, st.g.term)
	return nil
}

func (st *streamState) graphStart(f field) error {
	if st.opts.Physical != PhysicalGraphs {
		return decodeErr(f.at, "graph start in a %s stream", st.opts.Physical)
	}
	b, err := f.bytes()
	if err != nil {
		return err
	}
	st.graph = rdf.Term{}
	return walk(b, f.data, func(x field) error {
		var err error
		switch x.num {
		case 1:
			st.graph, err = st.iri(x)
		case 2:
			var label string
			label, err = x.str()
			st.graph = rdf.NewBlankNode(label)
		case 3:
			st.graph = rdf.Term{}
		case 4:
			st.graph, err = st.literal(x)
		}
		return err
	})
}

// statement decodes the subject/predicate/object (and graph for quads) of a
// triple or quad row, filling absent positions from the previous statement.
func (st *streamState) statement(f field, withGraph bool) (rdf.Quad, error) {
	b, err := f.bytes()
	if err != nil {
		return rdf.Quad{}, err
	}
	err = walk(b, f.data, func(x field) error {
		if x.num >= 1 && x.num <= 12 {
			t, err := st.term(x, int(x.num-1)%4)
			if err != nil {
				return err
			}
			switch (x.num - 1) / 4 {
			case 0:
				st.s = slot{t, true}
			case 1:
				st.p = slot{t, true}
			default:
				st.o = slot{t, true}
			}
			return nil
		}
		if !withGraph {
			return nil
		}
		var (
			g   rdf.Term
			err error
		)
		switch x.num {
		case 13:
			g, err = st.iri(x)
		case 14:
			var label string
			label, err = x.str()
			g = rdf.NewBlankNode(label)
		case 15:
		case 16:
			g, err = st.literal(x)
		default:
			return nil
		}
		if err != nil {
			return err
		}
		st.g = slot{g, true}
		return nil
	})
	if err != nil {
		return rdf.Quad{}, err
	}

	switch {
	case !st.s.set:
		return rdf.Quad{}, decodeErr(f.at, "missing subject")
	case !st.p.set:
		return rdf.Quad{}, decodeErr(f.at, "missing predicate")
	case !st.o.set:
		return rdf.Quad{}, decodeErr(f.at, "missing object")
	case withGraph && !st.g.set:
		return rdf.Quad{}, decodeErr(f.at, "missing graph")
	}
	return rdf.Quad{Subject: st.s.term, Predicate: st.p.term, Object: st.o.term}, nil
}

// term decodes one position; kind is 0 iri, 1 blank node, 2 literal,
// 3 quoted triple.
func (st *streamState) term(f field, kind int) (rdf.Term, error) {
	switch kind {
	case 0:
		return st.iri(f)
	case 1:
		label, err := f.str()
		return rdf.NewBlankNode(label), err
	case 2:
		return st.literal(f)
	default:
		return st.quoted(f)
	}
}

func (st *streamState) iri(f field) (rdf.Term, error) {
	b, err := f.bytes()
	if err != nil {
		return rdf.Term{}, err
	}
	var prefixID, nameID uint64
	err = walk(b, f.data, func(x field) error {
		var err error
		switch x.num {
		case 1:
			prefixID, err = x.uint()
		case 2:
			nameID, err = x.uint()
		}
		return err
	})
	if err != nil {
		return rdf.Term{}, err
	}
	prefix, err := st.prefixes.get(prefixID, readSame)
	if err != nil {
		return rdf.Term{}, decodeErr(f.at, "%v", err)
	}
	name, err := st.names.get(nameID, readNext)
	if err != nil {
		return rdf.Term{}, decodeErr(f.at, "%v", err)
	}
	return rdf.NewIRI(prefix + name), nil
}

func (st *streamState) literal(f field) (rdf.Term, error) {
	b, err := f.bytes()
	if err != nil {
		return rdf.Term{}, err
	}
	var t rdf.Term
	t.Kind = rdf.Literal
	err = walk(b, f.data, func(x field) error {
		var err error
		switch x.num {
		case 1:
			t.Value, err = x.str()
		case 2:
			t.Language, err = x.str()
		case 3:
			var id uint64
			if id, err = x.uint(); err != nil {
				return err
			}
			if t.Datatype, err = st.datatypes.get(id, readExplicit); err != nil {
				return decodeErr(x.at, "%v", err)
			}
		}
		return err
	})
	return t, err
}

// quoted decodes an RDF-star triple term. Quoted triples do not take part
// in repeated-term compression, so every position must be present.
func (st *streamState) quoted(f field) (rdf.Term, error) {
	b, err := f.bytes()
	if err != nil {
		return rdf.Term{}, err
	}
	var pos [3]slot
	err = walk(b, f.data, func(x field) error {
		if x.num < 1 || x.num > 12 {
			return nil
		}
		t, err := st.term(x, int(x.num-1)%4)
		if err != nil {
			return err
		}
		pos[(x.num-1)/4] = slot{t, true}
		return nil
	})
	if err != nil {
		return rdf.Term{}, err
	}
	for _, p := range pos {
		if !p.set {
			return rdf.Term{}, decodeErr(f.at, "incomplete quoted triple")
		}
	}
	return rdf.NewTripleTerm(rdf.Triple{Subject: pos[0].term, Predicate: pos[1].term, Object: pos[2].term}), nil
}
