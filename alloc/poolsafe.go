package alloc

import (
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/fixedpool/memutils"
)

// CheckPoolSafe returns an error wrapping memutils.ErrInvalidArgument if T holds anything the garbage
// collector would need to find: pointers, strings, slices, maps, interfaces, channels or funcs. Pool
// memory is never scanned, so such values would be freed while still stored in the pool.
//
// Containers call this for their element types. Their own node types hold links into pool memory and
// are not checked.
func CheckPoolSafe[T any]() error {
	t := reflect.TypeOf((*T)(nil)).Elem()

	path, kind, found := findReference(t, t.String())
	if found {
		return errors.Wrapf(memutils.ErrInvalidArgument, "%s cannot be stored in pool memory: %s is a %s",
			t.String(), path, kind)
	}
	return nil
}

func findReference(t reflect.Type, path string) (string, reflect.Kind, bool) {
	switch t.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Interface, reflect.Chan, reflect.Func,
		reflect.Pointer, reflect.UnsafePointer:
		return path, t.Kind(), true
	case reflect.Array:
		return findReference(t.Elem(), path+"[]")
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if found, kind, ok := findReference(field.Type, path+"."+field.Name); ok {
				return found, kind, true
			}
		}
	}
	return "", reflect.Invalid, false
}
