package container

import (
	"fmt"
	"strings"
)

// Shape is a generic type without its type arguments, such as
// "*example.com/app.GenericImpl" with arity 1.
type Shape struct {
	Name    string
	Arity   int
	Pointer bool
}

func (s Shape) String() string {
	p := ""
	if s.Pointer {
		p = "*"
	}
	return fmt.Sprintf("%s%s[%d]", p, s.Name, s.Arity)
}

// Close substitutes args into the shape.
func (s Shape) Close(args []string) (Key, error) {
	if len(args) != s.Arity {
		return "", fmt.Errorf("%w: %s takes %d type arguments, got %d", ErrInvalidRegistration, s, s.Arity, len(args))
	}
	p := ""
	if s.Pointer {
		p = "*"
	}
	return Key(p + s.Name + "[" + strings.Join(args, ",") + "]"), nil
}

// ShapeOf is the shape of the generic type T is an instantiation of. The
// type arguments used to name T do not matter: ShapeOf[Repo[any]] and
// ShapeOf[Repo[int]] are equal.
func ShapeOf[T any]() Shape {
	s, _, ok := ParseShape(TypeKey[T]())
	if !ok {
		return Shape{Name: string(TypeKey[T]())}
	}
	return s
}

// ParseShape splits a closed generic key into its shape and type arguments.
// It reports false for keys that are not generic instantiations.
func ParseShape(key Key) (Shape, []string, bool) {
	k := string(key)
	pointer := strings.HasPrefix(k, "*")
	k = strings.TrimPrefix(k, "*")

	open := strings.IndexByte(k, '[')
	if open <= 0 || !strings.HasSuffix(k, "]") {
		return Shape{}, nil, false
	}
	args, ok := splitArgs(k[open+1 : len(k)-1])
	if !ok || len(args) == 0 {
		return Shape{}, nil, false
	}
	return Shape{Name: k[:open], Arity: len(args), Pointer: pointer}, args, true
}

// splitArgs splits on the commas that are not nested in brackets.
func splitArgs(s string) ([]string, bool) {
	var args []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return nil, false
			}
		case ',':
			if depth == 0 {
				args = append(args, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, false
	}
	return append(args, s[start:]), true
}
