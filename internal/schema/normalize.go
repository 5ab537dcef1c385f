package schema

import "reflect"

// withEmptyCollections returns a copy of v in which every nil slice and map
// reachable through exported fields is replaced by an empty one, so records
// built in Go encode lists as [] rather than null. Nil pointers stay nil. The
// caller's value is never modified.
func withEmptyCollections(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.New(reflect.TypeOf(v)).Elem()
	rv.Set(reflect.ValueOf(v))
	fillCollections(rv)
	return rv.Interface()
}

func fillCollections(v reflect.Value) {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return
		}
		elem := reflect.New(v.Type().Elem())
		elem.Elem().Set(v.Elem())
		fillCollections(elem.Elem())
		v.Set(elem)
	case reflect.Struct:
		t := v.Type()
		for i := range t.NumField() {
			if t.Field(i).IsExported() {
				fillCollections(v.Field(i))
			}
		}
	case reflect.Slice:
		if v.IsNil() {
			v.Set(reflect.MakeSlice(v.Type(), 0, 0))
			return
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		reflect.Copy(out, v)
		for i := range out.Len() {
			fillCollections(out.Index(i))
		}
		v.Set(out)
	case reflect.Map:
		if v.IsNil() {
			v.Set(reflect.MakeMapWithSize(v.Type(), 0))
		}
	}
}
