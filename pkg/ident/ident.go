package ident

import "github.com/google/uuid"

// Generator produces message identifiers for locally originated messages,
// before the server has seen them. Identifiers are UUIDv7: a millisecond
// timestamp prefix keeps them roughly sortable by creation time, the random
// suffix makes collisions across participants vanishingly unlikely.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Next returns a fresh identifier. The id is the message's permanent identity;
// the server echoes it back unchanged.
func (g *Generator) Next() string {
	id, err := uuid.NewV7()
	if err != nil {
		// v7 generation only fails if the entropy source does; fall back to v4
		// rather than returning an empty identity.
		return uuid.NewString()
	}
	return id.String()
}
