// Package htmlhost serializes a committed fiber tree to HTML. It is a
// read-only consumer of the tree the engine exposes for diagnostics; it
// never mutates anything.
package htmlhost

import (
	"fmt"
	"io"
	"reflect"
	"sort"

	"github.com/delaneyj/fiberparty/fiber"
	"github.com/valyala/quicktemplate"
)

var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// Render writes the host output of a committed tree rooted at f. Pass
// engine.Current() to serialize the whole tree. Text is escaped; props with
// non-scalar values (handlers and the like) are skipped.
func Render(w io.Writer, f *fiber.Fiber) {
	qw := quicktemplate.AcquireWriter(w)
	defer quicktemplate.ReleaseWriter(qw)
	writeChildren(qw, f)
}

func writeChildren(qw *quicktemplate.Writer, f *fiber.Fiber) {
	for c := f.Child(); c != nil; c = c.Sibling() {
		writeFiber(qw, c)
	}
}

func writeFiber(qw *quicktemplate.Writer, f *fiber.Fiber) {
	switch f.Tag() {
	case fiber.TextTag:
		qw.E().S(f.Text())
	case fiber.HostTag:
		tag := f.Kind().(string)
		qw.N().S("<")
		qw.N().S(tag)
		writeAttrs(qw, f.Props())
		qw.N().S(">")
		if voidTags[tag] {
			return
		}
		writeChildren(qw, f)
		qw.N().S("</")
		qw.N().S(tag)
		qw.N().S(">")
	default:
		// Components and roots have no host output of their own.
		writeChildren(qw, f)
	}
}

func writeAttrs(qw *quicktemplate.Writer, props fiber.Props) {
	if len(props) == 0 {
		return
	}
	names := make([]string, 0, len(props))
	for name := range props {
		if name == fiber.CatchProp || !scalar(props[name]) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		qw.N().S(" ")
		qw.N().S(name)
		qw.N().S(`="`)
		qw.E().S(fmt.Sprintf("%v", props[name]))
		qw.N().S(`"`)
	}
}

func scalar(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
