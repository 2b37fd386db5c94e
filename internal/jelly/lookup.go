package jelly

import "fmt"

type readMode int

const (
	readNext readMode = iota // id 0 means last read + 1
	readSame                 // id 0 means last read (1 before any read)
	readExplicit             // id 0 is invalid
)

// lookup is one of the stream's string tables. Ids are 1-based.
type lookup struct {
	name      string
	size      int
	table     []string
	lastRead  int
	nextWrite int
}

func newLookup(name string, size int) *lookup {
	return &lookup{name: name, size: size, table: make([]string, size+1), nextWrite: 1}
}

func (l *lookup) set(id uint64, value string) error {
	idx := int(id)
	if id == 0 {
		idx = l.nextWrite
	}
	if idx < 1 || idx > l.size {
		return fmt.Errorf("%s table: id %d out of range (size %d)", l.name, idx, l.size)
	}
	l.table[idx] = value
	l.nextWrite = idx + 1
	return nil
}

func (l *lookup) get(id uint64, mode readMode) (string, error) {
	if l.size == 0 {
		return "", nil
	}
	idx := int(id)
	if id == 0 {
		switch mode {
		case readNext:
			idx = l.lastRead + 1
		case readSame:
			idx = max(l.lastRead, 1)
		default:
			return "", fmt.Errorf("%s table: id 0 is not allowed", l.name)
		}
	}
	if idx > l.size || idx < 1 {
		return "", fmt.Errorf("%s table: id %d out of range (size %d)", l.name, idx, l.size)
	}
	l.lastRead = idx
	return l.table[idx], nil
}
