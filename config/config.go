// Package config loads endpoint declarations from YAML files and registers
// them on a restep.Client.
//
//	base_url: https://api.example.com
//	protocol: json
//	request_id: true
//	endpoints:
//	  - name: get_user
//	    method: GET
//	    path: /users/:id
//	    args:
//	      - name: id
//	        validate: gt=0
//	      - name: fields
//	        in: query
//	    status_errors: true
package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/broady/restep"
)

const (
	defaultMethod = http.MethodGet
	defaultPath   = "/"
)

// File is the top-level YAML document.
type File struct {
	BaseURL   string     `yaml:"base_url"`
	Protocol  string     `yaml:"protocol"`
	RequestID bool       `yaml:"request_id"`
	Endpoints []Endpoint `yaml:"endpoints"`
}

// Endpoint declares one endpoint.
type Endpoint struct {
	Name     string `yaml:"name"`
	Method   string `yaml:"method"`
	Path     string `yaml:"path"`
	Args     []Arg  `yaml:"args"`
	Protocol string `yaml:"protocol"`
	// Normalize makes restep.NormalizeResponse the terminal step.
	Normalize bool `yaml:"normalize"`
	// StatusErrors makes restep.StatusErrors the terminal step.
	StatusErrors bool `yaml:"status_errors"`
}

// Arg declares one positional argument.
type Arg struct {
	Name string `yaml:"name"`
	// In is "path", "query", "body" or empty to infer from the path.
	In string `yaml:"in"`
	// Validate is a go-playground/validator tag such as "eq=1".
	Validate string `yaml:"validate"`
}

// Issue carries the location of a semantic error in a definition file.
type Issue struct {
	Endpoint string
	Field    string
	Err      error
}

func (e *Issue) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	if e.Endpoint == "" {
		return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config: endpoint %q: %s: %v", e.Endpoint, e.Field, e.Err)
}

func (e *Issue) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func issue(endpoint, field string, err error) error {
	return &Issue{Endpoint: endpoint, Field: field, Err: err}
}

// Load reads and parses the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML, fills defaults and validates the result.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	f.applyDefaults()
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) applyDefaults() {
	for i := range f.Endpoints {
		e := &f.Endpoints[i]
		e.Name = strings.TrimSpace(e.Name)
		if strings.TrimSpace(e.Method) == "" {
			e.Method = defaultMethod
		}
		e.Method = strings.ToUpper(strings.TrimSpace(e.Method))
		if e.Path == "" {
			e.Path = defaultPath
		}
	}
}

// Validate checks names, placements, protocols and terminal step choices.
// It does not compile the endpoints.
func (f *File) Validate() error {
	if _, err := ProtocolByName(f.Protocol); err != nil {
		return issue("", "protocol", err)
	}

	seen := make(map[string]bool, len(f.Endpoints))
	for i, e := range f.Endpoints {
		if e.Name == "" {
			return issue("", fmt.Sprintf("endpoints[%d].name", i), errors.New("required"))
		}
		if seen[e.Name] {
			return issue(e.Name, "name", errors.New("duplicate endpoint"))
		}
		seen[e.Name] = true

		if e.Protocol != "" {
			if _, err := ProtocolByName(e.Protocol); err != nil {
				return issue(e.Name, "protocol", err)
			}
		}
		if e.Normalize && e.StatusErrors {
			return issue(e.Name, "normalize", errors.New("normalize and status_errors both replace the response step"))
		}

		argNames := make(map[string]bool, len(e.Args))
		for j, a := range e.Args {
			field := fmt.Sprintf("args[%d]", j)
			if strings.TrimSpace(a.Name) == "" {
				return issue(e.Name, field+".name", errors.New("required"))
			}
			if argNames[a.Name] {
				return issue(e.Name, field+".name", fmt.Errorf("duplicate argument %q", a.Name))
			}
			argNames[a.Name] = true
			if _, err := restep.ParsePlacement(a.In); err != nil {
				return issue(e.Name, field+".in", err)
			}
			if a.Validate != "" {
				if err := restep.CheckTag(a.Validate); err != nil {
					return issue(e.Name, field+".validate", err)
				}
			}
		}
	}
	return nil
}

// ProtocolByName maps a protocol name to an implementation:
// "" and "default" to restep.DefaultProtocol, "json" to restep.JSONProtocol.
func ProtocolByName(name string) (restep.Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return restep.DefaultProtocol{}, nil
	case "json":
		return restep.JSONProtocol{}, nil
	default:
		return nil, fmt.Errorf("unknown protocol %q", name)
	}
}

// Options converts an endpoint declaration to restep options.
func (e Endpoint) Options(requestID bool) ([]restep.EndpointOption, error) {
	opts := []restep.EndpointOption{restep.WithPath(e.Path)}

	args := make([]restep.Arg, 0, len(e.Args))
	for _, a := range e.Args {
		placement, err := restep.ParsePlacement(a.In)
		if err != nil {
			return nil, issue(e.Name, "args", err)
		}
		arg := restep.Arg{Name: a.Name, Placement: placement}
		if a.Validate != "" {
			arg = arg.Validate(a.Validate)
		}
		args = append(args, arg)
	}
	opts = append(opts, restep.WithArgs(args...))

	if e.Protocol != "" {
		p, err := ProtocolByName(e.Protocol)
		if err != nil {
			return nil, issue(e.Name, "protocol", err)
		}
		if requestID {
			p = restep.WithRequestID(p)
		}
		opts = append(opts, restep.WithProtocol(p))
	}

	switch {
	case e.Normalize:
		opts = append(opts, restep.WithNormalizedResponse())
	case e.StatusErrors:
		opts = append(opts, restep.WithOverride(restep.StepResponse, restep.Inline(restep.ResponseFunc(restep.StatusErrors))))
	}
	return opts, nil
}

// Apply configures c from the file and registers every endpoint.
// A non-empty base_url replaces the client's base URL.
func (f *File) Apply(c *restep.Client) error {
	if f.BaseURL != "" {
		c.WithBaseURL(f.BaseURL)
	}
	p, err := ProtocolByName(f.Protocol)
	if err != nil {
		return issue("", "protocol", err)
	}
	if f.RequestID {
		p = restep.WithRequestID(p)
	}
	c.WithProtocol(p)

	for _, e := range f.Endpoints {
		opts, err := e.Options(f.RequestID)
		if err != nil {
			return err
		}
		if _, err := c.Register(e.Name, e.Method, opts...); err != nil {
			return err
		}
	}
	return nil
}
