package rdf

// Factory turns decoded terms into records of type R. The decoder calls
// NewRecord once per statement, in decode order.
type Factory[R any] interface {
	NewRecord(s, p, o, g Term) R
}

// QuadFactory builds structured quads.
type QuadFactory struct{}

func (QuadFactory) NewRecord(s, p, o, g Term) Quad {
	return Quad{Subject: s, Predicate: p, Object: o, Graph: g}
}

// TextFactory builds one N-Quads style line per statement.
type TextFactory struct{}

func (TextFactory) NewRecord(s, p, o, g Term) string {
	return Quad{Subject: s, Predicate: p, Object: o, Graph: g}.String()
}
