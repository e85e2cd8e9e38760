package restep

// bound holds one call's argument values partitioned by placement.
// Each slice keeps declaration order.
type bound struct {
	path  []namedValue
	query []namedValue
	body  []namedValue
}

type namedValue struct {
	name  string
	value any
}

// bind validates values against args positionally and partitions them.
// args must already have their placements resolved. Every validator runs
// before bind returns, so a failure leaves nothing half-built.
func bind(endpoint string, args []Arg, values []any) (bound, error) {
	var b bound
	if len(values) != len(args) {
		return b, &ArityError{Endpoint: endpoint, Want: len(args), Got: len(values)}
	}

	for i, arg := range args {
		v := values[i]
		if !arg.check(v) {
			return bound{}, &ValidationError{
				Endpoint:    endpoint,
				Argument:    arg.Name,
				Value:       v,
				Description: arg.Description(),
			}
		}
	}

	for i, arg := range args {
		nv := namedValue{name: arg.Name, value: values[i]}
		switch arg.Placement {
		case InPath:
			b.path = append(b.path, nv)
		case InBody:
			b.body = append(b.body, nv)
		default:
			b.query = append(b.query, nv)
		}
	}
	return b, nil
}
