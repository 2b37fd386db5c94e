package rdf

// Triple is a subject, predicate, object statement.
type Triple struct {
	Subject, Predicate, Object Term
}

func (t Triple) Equal(o Triple) bool {
	return t.Subject.Equal(o.Subject) && t.Predicate.Equal(o.Predicate) && t.Object.Equal(o.Object)
}

func (t Triple) String() string {
	return t.Subject.String() + " " + t.Predicate.String() + " " + t.Object.String()
}

// Quad is a triple with an optional graph label; a zero Graph is the
// default graph.
type Quad struct {
	Subject, Predicate, Object, Graph Term
}

func (q Quad) Triple() Triple { return Triple{q.Subject, q.Predicate, q.Object} }

func (q Quad) Equal(o Quad) bool {
	return q.Triple().Equal(o.Triple()) && q.Graph.Equal(o.Graph)
}

// String renders the quad as one N-Quads style statement.
func (q Quad) String() string {
	s := q.Triple().String()
	if !q.Graph.IsDefaultGraph() {
		s += " " + q.Graph.String()
	}
	return s + " ."
}
