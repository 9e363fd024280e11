package canon

import "reflect"

var (
	ints = []reflect.Type{
		reflect.TypeFor[int](), reflect.TypeFor[int8](), reflect.TypeFor[int16](),
		reflect.TypeFor[int32](), reflect.TypeFor[int64](),
		reflect.TypeFor[uint](), reflect.TypeFor[uint8](), reflect.TypeFor[uint16](),
		reflect.TypeFor[uint32](), reflect.TypeFor[uint64](),
	}
	floats = []reflect.Type{reflect.TypeFor[float64](), reflect.TypeFor[float32]()}
)

// towers maps each predeclared float and complex type to the types it
// admits under the numeric tower. The hinted type always comes first.
var towers = map[reflect.Type][]reflect.Type{
	reflect.TypeFor[float64](): widen(reflect.TypeFor[float64](), floats, ints),
	reflect.TypeFor[float32](): widen(reflect.TypeFor[float32](), floats, ints),
	reflect.TypeFor[complex128](): widen(reflect.TypeFor[complex128](),
		[]reflect.Type{reflect.TypeFor[complex64]()}, floats, ints),
	reflect.TypeFor[complex64](): widen(reflect.TypeFor[complex64](),
		[]reflect.Type{reflect.TypeFor[complex128]()}, floats, ints),
}

func widen(first reflect.Type, groups ...[]reflect.Type) []reflect.Type {
	out := []reflect.Type{first}
	for _, g := range groups {
		for _, t := range g {
			if t != first {
				out = append(out, t)
			}
		}
	}
	return out
}
