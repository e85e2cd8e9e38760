package restep

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Placement says where a bound argument value ends up in the request.
type Placement int

const (
	// PlacementUnset resolves at compile time: InPath when the name appears as
	// a placeholder in the path template, InQuery otherwise.
	PlacementUnset Placement = iota
	InPath
	InQuery
	InBody
)

func (p Placement) String() string {
	switch p {
	case InPath:
		return "path"
	case InQuery:
		return "query"
	case InBody:
		return "body"
	default:
		return "unset"
	}
}

// ParsePlacement parses the names produced by Placement.String.
// The empty string parses as PlacementUnset.
func ParsePlacement(s string) (Placement, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unset":
		return PlacementUnset, nil
	case "path":
		return InPath, nil
	case "query":
		return InQuery, nil
	case "body":
		return InBody, nil
	default:
		return PlacementUnset, fmt.Errorf("unknown placement %q", s)
	}
}

// Predicate reports whether a raw argument value is acceptable.
type Predicate func(value any) bool

type argValidator struct {
	fn          Predicate
	description string
	tag         string
}

// Arg describes one positional call argument.
// Args are values; the builder methods return modified copies.
type Arg struct {
	Name      string
	Placement Placement
	validator *argValidator
}

// NewArg declares an argument whose placement is resolved from the path template.
func NewArg(name string) Arg {
	return Arg{Name: name}
}

// PathArg declares an argument substituted into the path template.
func PathArg(name string) Arg {
	return Arg{Name: name, Placement: InPath}
}

// QueryArg declares an argument sent as a query parameter.
func QueryArg(name string) Arg {
	return Arg{Name: name, Placement: InQuery}
}

// BodyArg declares an argument sent as a field of the request body.
func BodyArg(name string) Arg {
	return Arg{Name: name, Placement: InBody}
}

// Check attaches a predicate. The description is reported in ValidationError;
// when empty, the predicate's function name is used.
func (a Arg) Check(fn Predicate, description string) Arg {
	if description == "" {
		description = funcName(fn)
	}
	a.validator = &argValidator{fn: fn, description: description}
	return a
}

// Validate attaches a validator using go-playground/validator field tags,
// for example "eq=1", "min=3,max=10" or "oneof=asc desc". Unknown tags are
// reported when the endpoint is compiled.
func (a Arg) Validate(tag string) Arg {
	a.validator = &argValidator{
		fn: func(v any) (ok bool) {
			defer func() {
				if recover() != nil {
					ok = false
				}
			}()
			return validate.Var(v, tag) == nil
		},
		description: describeTag(tag),
		tag:         tag,
	}
	return a
}

// CheckTag reports whether tag is a usable validator tag.
func CheckTag(tag string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid validator tag %q: %v", tag, r)
		}
	}()
	// Undefined tags panic while the tag is parsed. A nil value stops
	// validation before any parameter is interpreted.
	_ = validate.Var(nil, tag)
	return nil
}

// HasValidator reports whether a validator is attached.
func (a Arg) HasValidator() bool {
	return a.validator != nil
}

// Description returns the human rendering of the attached validator.
func (a Arg) Description() string {
	if a.validator == nil {
		return ""
	}
	return a.validator.description
}

// check runs the validator, if any, against v.
func (a Arg) check(v any) bool {
	if a.validator == nil {
		return true
	}
	return a.validator.fn(v)
}

// describeTag renders a validator tag as "human text (tag)".
// Only single-rule tags get a human rendering.
func describeTag(tag string) string {
	if strings.ContainsAny(tag, ",|") {
		return tag
	}
	name, param, _ := strings.Cut(tag, "=")
	msg := tagMessage(name, param)
	if msg == "" {
		return tag
	}
	return msg + " (" + tag + ")"
}

func tagMessage(tag, param string) string {
	switch tag {
	case "required":
		return "required"
	case "min":
		return fmt.Sprintf("must be at least %s", param)
	case "max":
		return fmt.Sprintf("must be at most %s", param)
	case "len":
		return fmt.Sprintf("must have length %s", param)
	case "eq":
		return fmt.Sprintf("must equal %s", param)
	case "ne":
		return fmt.Sprintf("must not equal %s", param)
	case "gt":
		return fmt.Sprintf("must be greater than %s", param)
	case "gte":
		return fmt.Sprintf("must be at least %s", param)
	case "lt":
		return fmt.Sprintf("must be less than %s", param)
	case "lte":
		return fmt.Sprintf("must be at most %s", param)
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", param)
	default:
		return ""
	}
}

func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "predicate"
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return "predicate"
	}
	return f.Name()
}
