package rag

import (
	"errors"
	"fmt"
)

// Kind тип ошибки запроса
type Kind int

const (
	KindInvalidInput Kind = iota + 1
	KindRetrieval
	KindGeneration
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid input"
	case KindRetrieval:
		return "retrieval"
	case KindGeneration:
		return "generation"
	default:
		return "internal"
	}
}

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrRetrieval    = errors.New("retrieval failed")
	ErrGeneration   = errors.New("generation failed")

	// ErrQueryProcessing совпадает с любой ошибкой Engine.Answer
	ErrQueryProcessing = errors.New("query processing failed")
)

// QueryError единственный тип ошибки Engine.Answer
type QueryError struct {
	Kind Kind
	Err  error
}

func (e *QueryError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("query processing failed: %s", e.Kind)
	}
	return fmt.Sprintf("query processing failed: %s: %v", e.Kind, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Is для errors.Is: общий sentinel и sentinel своего типа
func (e *QueryError) Is(target error) bool {
	switch target {
	case ErrQueryProcessing:
		return true
	case ErrInvalidInput:
		return e.Kind == KindInvalidInput
	case ErrRetrieval:
		return e.Kind == KindRetrieval
	case ErrGeneration:
		return e.Kind == KindGeneration
	}
	return false
}

func newQueryError(kind Kind, err error) *QueryError {
	return &QueryError{Kind: kind, Err: err}
}

// KindOf тип QueryError в цепочке err или 0
func KindOf(err error) Kind {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return 0
}
