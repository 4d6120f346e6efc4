package ontology

import "errors"

// Sentinel kinds for ontology loading errors.
var (
	ErrLoadOntology    = errors.New("load ontology failed")
	ErrInvalidOntology = errors.New("invalid ontology")
)
