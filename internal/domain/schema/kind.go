package schema

import (
	"fmt"
	"strings"

	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/data"
)

// Kind is the declared value kind of a column
type Kind int

const (
	Any Kind = iota // no type checking
	Integer
	Float
	Text
	Boolean
)

// String returns the on-disk kind name; Any renders as "any" but is persisted as null.
func (k Kind) String() string {
	switch k {
	case Integer:
		return "int"
	case Float:
		return "float"
	case Text:
		return "str"
	case Boolean:
		return "bool"
	}
	return "any"
}

// Accepts reports whether v may be stored in a column of kind k.
// Null is accepted everywhere; kinds compare exactly (Integer != Float, Boolean != Integer).
func (k Kind) Accepts(v interface{}) bool {
	if k == Any || v == nil {
		return true
	}
	return k.valueKind() == data.KindOf(v)
}

func (k Kind) valueKind() data.ValueKind {
	switch k {
	case Integer:
		return data.KindInteger
	case Float:
		return data.KindFloat
	case Text:
		return data.KindText
	case Boolean:
		return data.KindBoolean
	}
	return data.KindUnsupported
}

// ParseKind parses a user-supplied kind name
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "int", "integer":
		return Integer, nil
	case "float":
		return Float, nil
	case "str", "string", "text":
		return Text, nil
	case "bool", "boolean":
		return Boolean, nil
	case "any", "":
		return Any, nil
	}
	return Any, fmt.Errorf("unknown column kind %q", name)
}

// kindFromStored maps a persisted kind name; names it does not know become Any.
func kindFromStored(name string) Kind {
	switch name {
	case "int":
		return Integer
	case "float":
		return Float
	case "str":
		return Text
	case "bool":
		return Boolean
	}
	return Any
}

// InferKind guesses a column kind from a sample value.
// Only Integer, Float and Text are inferred; anything else is Any.
func InferKind(v interface{}) Kind {
	switch data.KindOf(v) {
	case data.KindInteger:
		return Integer
	case data.KindFloat:
		return Float
	case data.KindText:
		return Text
	}
	return Any
}
