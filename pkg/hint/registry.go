package hint

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
)

var registry sync.Map // string -> reflect.Type

// Register makes t resolvable through the absolute forward reference name.
// Registering the same name twice with different types is an error.
func Register(name string, t reflect.Type) error {
	if !IsAbsolute(name) {
		return fmt.Errorf("register %q: name must be package qualified", name)
	}
	if t == nil {
		return fmt.Errorf("register %q: nil type", name)
	}
	prev, loaded := registry.LoadOrStore(name, t)
	if loaded && prev.(reflect.Type) != t {
		return fmt.Errorf("register %q: already registered as %s", name, prev.(reflect.Type))
	}
	return nil
}

// RegisterType registers T under its qualified name ("import/path.Name")
// and returns that name.
func RegisterType[T any]() (string, error) {
	t := reflect.TypeFor[T]()
	name := QualifiedName(t)
	if name == "" {
		return "", fmt.Errorf("register %s: type has no qualified name", t)
	}
	return name, Register(name, t)
}

// QualifiedName returns "import/path.Name" for named types and "" otherwise.
func QualifiedName(t reflect.Type) string {
	if t == nil || t.Name() == "" || t.PkgPath() == "" {
		return ""
	}
	return t.PkgPath() + "." + t.Name()
}

// Lookup resolves an absolute forward reference. Names not registered with
// Register fall back to protobuf message full names in the global protobuf
// registry, resolving to the generated message pointer type.
func Lookup(name string) (reflect.Type, bool) {
	if t, ok := registry.Load(name); ok {
		return t.(reflect.Type), true
	}
	mt, err := protoregistry.GlobalTypes.FindMessageByName(protoreflect.FullName(name))
	if err != nil {
		return nil, false
	}
	return reflect.TypeOf(mt.Zero().Interface()), true
}

// IsAbsolute reports whether a forward reference name is package qualified.
func IsAbsolute(name string) bool {
	return strings.Contains(name, ".")
}

// SplitRef splits a forward reference into its package path and basename.
// Relative names have an empty path.
func SplitRef(name string) (path, base string) {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return "", name
	}
	return name[:i], name[i+1:]
}
