package booking

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	codePrefix   = "BM"
	codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	codeLength   = 8
)

// CodeGenerator produces the short reference printed on a booking slip.
type CodeGenerator interface {
	Generate() (string, error)
}

type nanoidCodes struct{}

// NewCodeGenerator returns codes like BM7K2Q9XZA: upper-case, no
// lookalike-prone punctuation, random rather than clock based.
func NewCodeGenerator() CodeGenerator { return nanoidCodes{} }

func (nanoidCodes) Generate() (string, error) {
	id, err := gonanoid.Generate(codeAlphabet, codeLength)
	if err != nil {
		return "", err
	}
	return codePrefix + id, nil
}
