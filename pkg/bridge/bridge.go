// Package bridge adapts route handlers for map-based invocation.
//
// Handlers take typed Go parameters, but module callers supply a flat JSON
// object. Flatten inspects a handler once and produces a Bound value that
// maps the flat argument object onto the handler's signature: scalar
// parameters are looked up by name, struct parameters are reassembled from
// the fields that belong to them.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/modgate/modgate/pkg/api"
	"github.com/modgate/modgate/pkg/routes"
	"github.com/modgate/modgate/pkg/schema"
)

var (
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

// Bound is a handler prepared for invocation with a flat argument object.
type Bound struct {
	// Handler is the handler this binding wraps.
	Handler routes.Handler

	fn        reflect.Value
	hasCtx    bool
	params    []boundParam
	flattened bool
}

// boundParam describes one non-context handler parameter.
type boundParam struct {
	typ    reflect.Type
	name   string
	model  reflect.Type // nil for scalar parameters
	fields []string     // flat field names owned by a model parameter
}

// Flatten prepares a handler for invocation. Handlers without struct
// parameters bind as-is; handlers with struct parameters get their fields
// lifted to the top level of the argument object.
func Flatten(h routes.Handler) (*Bound, error) {
	fn := reflect.ValueOf(h.Func)
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return nil, api.NewBackendContractError(
			fmt.Sprintf("handler %q is not a func", h.Name))
	}
	ft := fn.Type()

	b := &Bound{Handler: h, fn: fn}

	start := 0
	if ft.NumIn() > 0 && ft.In(0) == ctxType {
		b.hasCtx = true
		start = 1
	}

	for i := start; i < ft.NumIn(); i++ {
		pt := ft.In(i)
		p := boundParam{typ: pt, name: paramName(h, i-start)}

		if mt := directModel(pt); mt != nil {
			p.model = mt
			p.fields = fieldNames(mt)
			b.flattened = true
		}
		b.params = append(b.params, p)
	}

	if err := checkResults(ft, h.Name); err != nil {
		return nil, err
	}
	return b, nil
}

// Flattened reports whether any struct parameter was lifted into the flat
// argument object. When false the binding is an identity adapter.
func (b *Bound) Flattened() bool { return b.flattened }

// FlatParams returns the names accepted in the flat argument object, scalar
// parameters in declaration order followed by each model's fields. A name
// appears once even when several parameters consume it.
func (b *Bound) FlatParams() []string {
	seen := map[string]bool{}
	var names []string
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, p := range b.params {
		if p.model == nil {
			add(p.name)
		}
	}
	for _, p := range b.params {
		for _, f := range p.fields {
			add(f)
		}
	}
	return names
}

// Call invokes the handler with values taken from the flat argument object.
//
// Scalar values and model field subsets travel through a JSON round trip,
// so callers may pass either decoded JSON values (float64 numbers) or
// native Go values of the right shape. A missing non-pointer scalar is a
// validation error; missing model fields are left to the model's zero
// values, since required-field enforcement happens during schema
// validation before the call.
func (b *Bound) Call(ctx context.Context, args map[string]any) (any, error) {
	in := make([]reflect.Value, 0, len(b.params)+1)
	if b.hasCtx {
		if ctx == nil {
			ctx = context.Background()
		}
		in = append(in, reflect.ValueOf(ctx))
	}

	for _, p := range b.params {
		v, err := b.buildArg(p, args)
		if err != nil {
			return nil, err
		}
		in = append(in, v)
	}

	out := b.fn.Call(in)
	return mapResults(out)
}

// buildArg produces the reflect value for one handler parameter.
func (b *Bound) buildArg(p boundParam, args map[string]any) (reflect.Value, error) {
	if p.model != nil {
		subset := make(map[string]any, len(p.fields))
		for _, f := range p.fields {
			if v, ok := args[f]; ok {
				subset[f] = v
			}
		}
		return decodeInto(p.typ, p.model, subset, p.name)
	}

	v, ok := args[p.name]
	if !ok {
		if p.typ.Kind() == reflect.Pointer {
			return reflect.Zero(p.typ), nil
		}
		return reflect.Value{}, api.NewValidationError(p.name,
			fmt.Sprintf("missing required parameter %q", p.name))
	}

	base := p.typ
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	return decodeInto(p.typ, base, v, p.name)
}

// decodeInto JSON round-trips value into a fresh instance of base, then
// re-wraps pointer levels to match the declared parameter type.
func decodeInto(declared, base reflect.Type, value any, name string) (reflect.Value, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return reflect.Value{}, api.NewValidationError(name,
			fmt.Sprintf("cannot encode argument %q: %v", name, err))
	}
	ptr := reflect.New(base)
	if err := json.Unmarshal(data, ptr.Interface()); err != nil {
		return reflect.Value{}, api.NewValidationError(name,
			fmt.Sprintf("argument %q does not fit parameter type %s: %v", name, base, err))
	}

	v := ptr.Elem()
	for t := declared; t.Kind() == reflect.Pointer; t = t.Elem() {
		pv := reflect.New(v.Type())
		pv.Elem().Set(v)
		v = pv
	}
	return v, nil
}

// checkResults rejects handler signatures whose results cannot be mapped
// to a (value, error) pair.
func checkResults(ft reflect.Type, name string) error {
	switch ft.NumOut() {
	case 0, 1:
		return nil
	case 2:
		if ft.Out(1) == errType {
			return nil
		}
	}
	return api.NewBackendContractError(
		fmt.Sprintf("handler %q must return at most one value and one trailing error", name))
}

// mapResults converts handler return values to a (value, error) pair.
func mapResults(out []reflect.Value) (any, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if out[0].Type() == errType {
			return nil, toError(out[0])
		}
		return out[0].Interface(), nil
	default:
		if err := toError(out[1]); err != nil {
			return nil, err
		}
		return out[0].Interface(), nil
	}
}

func toError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}

// directModel returns the struct type of a parameter that should be
// flattened. Only direct structs and pointers to structs qualify; slices
// pass through as scalar-style array arguments.
func directModel(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	if schema.ModelType(t) != t {
		return nil
	}
	return t
}

// paramName resolves the declared name of the i-th non-context parameter.
// The positional fallback matches the one schema inference uses, so a
// handler without declared names stays callable under its advertised names.
func paramName(h routes.Handler, i int) string {
	if i < len(h.Params) {
		return h.Params[i]
	}
	return fmt.Sprintf("arg%d", i)
}

// fieldNames lists a struct's JSON field names in declaration order,
// inlining embedded structs and honoring json tags.
func fieldNames(t reflect.Type) []string {
	var names []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			names = append(names, fieldNames(f.Type)...)
			continue
		}
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			base, _, _ := strings.Cut(tag, ",")
			if base == "-" {
				continue
			}
			if base != "" {
				name = base
			}
		}
		names = append(names, name)
	}
	return names
}
