package script

import (
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/dop251/goja"
)

func (h *Host) registerDocument() {
	doc := h.vm.NewObject()
	_ = doc.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Null()
		}
		id := call.Arguments[0].String()
		if h.flat != nil {
			if _, _, ok := h.lookup(id); !ok {
				return goja.Null()
			}
		}
		return h.element(id)
	})
	_ = h.vm.Set("document", doc)
}

// element returns the proxy of the element with id. Proxies are cached so
// that the same id yields the same object.
func (h *Host) element(id string) goja.Value {
	if v, ok := h.elements[id]; ok {
		return v
	}
	v := h.vm.NewDynamicObject(&elementAccessor{h: h, id: id})
	h.elements[id] = v
	return v
}

// elementAccessor implements goja.DynamicObject for elements addressed by
// id. Reads see patches first, then the last seen DOM.
type elementAccessor struct {
	h  *Host
	id string
}

var elementKeys = []string{
	"id", "tagName", "className", "textContent", "hidden",
	"classList", "style", "getBoundingClientRect",
}

func (e *elementAccessor) Get(key string) goja.Value {
	vm := e.h.vm
	p := e.h.patches[e.id]
	nid, n, found := e.h.lookup(e.id)

	switch key {
	case "id":
		return vm.ToValue(e.id)
	case "tagName":
		if !found {
			return goja.Undefined()
		}
		return vm.ToValue(strings.ToUpper(n.Type.TagName()))
	case "className":
		return vm.ToValue(strings.Join(e.classes(), " "))
	case "textContent":
		if p != nil && p.text != nil {
			return vm.ToValue(*p.text)
		}
		if !found {
			return vm.ToValue("")
		}
		return vm.ToValue(textContent(e.h.flat, nid))
	case "hidden":
		return vm.ToValue(p != nil && p.hidden != nil && *p.hidden)
	case "classList":
		return vm.NewDynamicObject(&classListAccessor{e: e})
	case "style":
		return vm.NewDynamicObject(&styleAccessor{e: e})
	case "getBoundingClientRect":
		return vm.ToValue(e.boundingRect)
	}
	return goja.Undefined()
}

func (e *elementAccessor) Set(key string, val goja.Value) bool {
	switch key {
	case "textContent":
		s := val.String()
		e.h.patchFor(e.id).text = &s
	case "className":
		e.setClasses(strings.Fields(val.String()))
	case "hidden":
		b := val.ToBoolean()
		e.h.patchFor(e.id).hidden = &b
	default:
		return false
	}
	return true
}

func (e *elementAccessor) Has(key string) bool { return slices.Contains(elementKeys, key) }
func (e *elementAccessor) Delete(string) bool  { return false }
func (e *elementAccessor) Keys() []string      { return slices.Clone(elementKeys) }

func (e *elementAccessor) classes() []string {
	if p := e.h.patches[e.id]; p != nil && p.classSet {
		return p.classes
	}
	if _, n, ok := e.h.lookup(e.id); ok {
		return n.Classes
	}
	return nil
}

func (e *elementAccessor) setClasses(classes []string) {
	p := e.h.patchFor(e.id)
	p.classes = slices.Clone(classes)
	p.classSet = true
}

func (e *elementAccessor) boundingRect(goja.FunctionCall) goja.Value {
	rect := map[string]float64{}
	if info := e.h.info; info != nil {
		if id, _, ok := e.h.lookup(e.id); ok {
			if b, ok := info.NodeBounds(id); ok {
				rect = map[string]float64{
					"x": b.X, "y": b.Y, "width": b.Width, "height": b.Height,
					"left": b.X, "top": b.Y, "right": b.Right(), "bottom": b.Bottom(),
				}
			}
		}
	}
	for _, k := range []string{"x", "y", "width", "height", "left", "top", "right", "bottom"} {
		if _, ok := rect[k]; !ok {
			rect[k] = 0
		}
	}
	return e.h.vm.ToValue(rect)
}

// classListAccessor is element.classList.
type classListAccessor struct {
	e *elementAccessor
}

func (cl *classListAccessor) Get(key string) goja.Value {
	vm := cl.e.h.vm
	switch key {
	case "length":
		return vm.ToValue(len(cl.e.classes()))
	case "contains":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(slices.Contains(cl.e.classes(), call.Argument(0).String()))
		})
	case "add":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			cs := slices.Clone(cl.e.classes())
			for _, a := range call.Arguments {
				if c := a.String(); !slices.Contains(cs, c) {
					cs = append(cs, c)
				}
			}
			cl.e.setClasses(cs)
			return goja.Undefined()
		})
	case "remove":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			cs := slices.Clone(cl.e.classes())
			for _, a := range call.Arguments {
				c := a.String()
				cs = slices.DeleteFunc(cs, func(s string) bool { return s == c })
			}
			cl.e.setClasses(cs)
			return goja.Undefined()
		})
	case "toggle":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			c := call.Argument(0).String()
			cs := slices.Clone(cl.e.classes())
			has := slices.Contains(cs, c)
			want := !has
			if force := call.Argument(1); !goja.IsUndefined(force) {
				want = force.ToBoolean()
			}
			switch {
			case want && !has:
				cs = append(cs, c)
			case !want && has:
				cs = slices.DeleteFunc(cs, func(s string) bool { return s == c })
			}
			if want != has {
				cl.e.setClasses(cs)
			}
			return vm.ToValue(want)
		})
	}
	if i, err := strconv.Atoi(key); err == nil && i >= 0 {
		if cs := cl.e.classes(); i < len(cs) {
			return vm.ToValue(cs[i])
		}
	}
	return goja.Undefined()
}

func (cl *classListAccessor) Set(string, goja.Value) bool { return false }
func (cl *classListAccessor) Has(key string) bool {
	switch key {
	case "length", "contains", "add", "remove", "toggle":
		return true
	}
	return false
}
func (cl *classListAccessor) Delete(string) bool { return false }
func (cl *classListAccessor) Keys() []string {
	return []string{"length", "contains", "add", "remove", "toggle"}
}

// styleAccessor maps camelCase properties of element.style to the
// kebab-case declarations of the element's style patch.
type styleAccessor struct {
	e *elementAccessor
}

func (s *styleAccessor) Get(key string) goja.Value {
	if key == "cssText" {
		if p := s.e.h.patches[s.e.id]; p != nil {
			return s.e.h.vm.ToValue(p.cssText())
		}
		return s.e.h.vm.ToValue("")
	}
	if p := s.e.h.patches[s.e.id]; p != nil {
		return s.e.h.vm.ToValue(p.styleValue(camelToKebab(key)))
	}
	return s.e.h.vm.ToValue("")
}

func (s *styleAccessor) Set(key string, val goja.Value) bool {
	s.e.h.patchFor(s.e.id).setStyle(camelToKebab(key), strings.TrimSpace(val.String()))
	return true
}

func (s *styleAccessor) Has(string) bool { return true }

func (s *styleAccessor) Delete(key string) bool {
	s.e.h.patchFor(s.e.id).setStyle(camelToKebab(key), "")
	return true
}

func (s *styleAccessor) Keys() []string {
	p := s.e.h.patches[s.e.id]
	if p == nil {
		return nil
	}
	keys := make([]string, 0, len(p.style))
	for _, d := range p.style {
		keys = append(keys, d.property)
	}
	return keys
}

// camelToKebab converts a JS camelCase property name to CSS kebab-case.
func camelToKebab(s string) string {
	if s == "cssFloat" {
		return "float"
	}
	var sb strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
