package record

import (
	"reflect"
	"strings"
)

// Columns lists the `col` tags of the string fields of struct v, in field
// order. Fields tagged with the "metric" option are listed only when metrics
// is set.
func Columns(v interface{}, metrics bool) []string {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	var cols []string
	for i := 0; i < t.NumField(); i++ {
		name, opt, ok := colTag(t.Field(i))
		if !ok || (opt == "metric" && !metrics) {
			continue
		}
		cols = append(cols, name)
	}
	return cols
}

// Of converts struct v into a Record keyed by its `col` tags.
func Of(v interface{}) Record {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	t := rv.Type()
	rec := make(Record, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, ok := colTag(t.Field(i))
		if !ok {
			continue
		}
		rec[name] = rv.Field(i).String()
	}
	return rec
}

func colTag(f reflect.StructField) (name, opt string, ok bool) {
	if f.Type.Kind() != reflect.String || !f.IsExported() {
		return "", "", false
	}
	tag := f.Tag.Get("col")
	if tag == "" || tag == "-" {
		return "", "", false
	}
	name, opt, _ = strings.Cut(tag, ",")
	return name, opt, true
}
