package restep

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/gorilla/schema"
)

var schemaEncoder = schema.NewEncoder()

// bodyKey is the field a scalar call-time body is nested under when the
// endpoint also declares body arguments.
const bodyKey = "body"

// assembled is the request input fed to the pre-dispatch steps.
type assembled struct {
	url     string
	headers Headers
	body    any
}

// assemble combines the resolved path with query candidates, body values
// and call options. Declared arguments win over call-time params and body
// keys with the same name.
func assemble(baseURL, path string, query, body []namedValue, opts *callOptions) (assembled, error) {
	q, err := queryValues(opts.params)
	if err != nil {
		return assembled{}, err
	}
	for _, nv := range query {
		q[nv.name] = queryStrings(nv.value)
	}

	u := baseURL + path
	if enc := q.Encode(); enc != "" {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + enc
	}

	headers := opts.headers.Clone()
	if headers == nil {
		headers = Headers{}
	}

	return assembled{
		url:     u,
		headers: headers,
		body:    mergeBody(body, opts.body, opts.bodySet),
	}, nil
}

// mergeBody applies the body precedence rules. A declared body merges with a
// map-like call-time body (declared keys win) or sits next to a scalar one
// nested under "body". A nil call-time body adds nothing to declared fields.
// Without declared fields the call-time body is used as given.
func mergeBody(declared []namedValue, callBody any, callBodySet bool) any {
	if len(declared) == 0 {
		if callBodySet {
			return callBody
		}
		return nil
	}

	out := make(map[string]any, len(declared)+1)
	if callBodySet && callBody != nil {
		if m, ok := mapLike(callBody); ok {
			for k, v := range m {
				out[k] = v
			}
		} else {
			out[bodyKey] = callBody
		}
	}
	for _, nv := range declared {
		out[nv.name] = nv.value
	}
	return out
}

// mapLike returns v as a string-keyed map when it is one, or when it is a
// struct whose JSON form is an object.
func mapLike(v any) (map[string]any, bool) {
	if v == nil {
		return nil, false
	}
	if m, ok := v.(map[string]any); ok {
		return m, true
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return out, true
	case reflect.Struct:
		data, err := json.Marshal(rv.Interface())
		if err != nil {
			return nil, false
		}
		var out map[string]any
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, false
		}
		return out, true
	default:
		return nil, false
	}
}

// queryValues converts the call-time params option to url.Values.
// Structs are encoded with gorilla/schema using `schema` tags.
func queryValues(params any) (url.Values, error) {
	q := url.Values{}
	switch p := params.(type) {
	case nil:
		return q, nil
	case url.Values:
		for k, vs := range p {
			q[k] = append([]string(nil), vs...)
		}
		return q, nil
	case map[string][]string:
		for k, vs := range p {
			q[k] = append([]string(nil), vs...)
		}
		return q, nil
	case map[string]string:
		for k, v := range p {
			q.Set(k, v)
		}
		return q, nil
	case map[string]any:
		for k, v := range p {
			q[k] = queryStrings(v)
		}
		return q, nil
	}

	rv := reflect.ValueOf(params)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return q, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("restep: params must be a map or struct, got %T", params)
	}
	if err := schemaEncoder.Encode(rv.Interface(), q); err != nil {
		return nil, fmt.Errorf("restep: encode params: %w", err)
	}
	return q, nil
}

// queryStrings renders one query value. Slices and arrays (other than
// []byte) become repeated keys.
func queryStrings(v any) []string {
	if v == nil {
		return []string{""}
	}
	if _, ok := v.([]byte); ok {
		return []string{formatValue(v)}
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]string, rv.Len())
		for i := range out {
			out[i] = formatValue(rv.Index(i).Interface())
		}
		return out
	}
	return []string{formatValue(v)}
}
