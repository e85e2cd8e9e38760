package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"

	"github.com/broady/restep"
	"github.com/broady/restep/config"
	"github.com/broady/restep/middleware"
)

type CLI struct {
	Config  string `help:"Endpoint definition file." short:"c" env:"RESTEP_CONFIG" default:"restep.yaml" type:"path"`
	Verbose bool   `help:"Log each request to stderr." short:"v"`
	Token   string `help:"Bearer token sent as Authorization." env:"RESTEP_TOKEN"`

	Version VersionCmd `cmd:"" help:"Print version information."`
	List    ListCmd    `cmd:"" help:"List the endpoints in the definition file."`
	Call    CallCmd    `cmd:"" help:"Call an endpoint and print the reply."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(Version())
	return nil
}

type ListCmd struct{}

func (c *ListCmd) Run(cli *CLI) error {
	client, err := loadClient(cli, "", newLogger(cli.Verbose))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMETHOD\tPATH\tARGS")
	for _, e := range client.Endpoints() {
		m := e.Metadata()
		args := make([]string, 0, len(m.Args))
		for _, a := range m.Args {
			s := a.Name + ":" + a.Placement
			if a.Validator != "" {
				s += " [" + a.Validator + "]"
			}
			args = append(args, s)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Name, m.Method, m.Path, strings.Join(args, ", "))
	}
	return w.Flush()
}

type CallCmd struct {
	Name    string            `arg:"" help:"Endpoint name."`
	Args    []string          `arg:"" optional:"" help:"Positional argument values."`
	BaseURL string            `help:"Override the base URL." env:"RESTEP_BASE_URL" name:"base-url"`
	Param   map[string]string `help:"Extra query parameter (key=value)." short:"p"`
	Header  map[string]string `help:"Request header (key=value)." short:"H"`
	Body    string            `help:"JSON request body."`
	Timeout time.Duration     `help:"Request timeout." default:"30s"`
}

func (c *CallCmd) Run(cli *CLI) error {
	logger := newLogger(cli.Verbose)
	client, err := loadClient(cli, c.BaseURL, logger)
	if err != nil {
		return err
	}

	values := make([]any, len(c.Args))
	for i, a := range c.Args {
		values[i] = parseValue(a)
	}

	opts := []restep.CallOption{
		restep.WithPassthrough(restep.PassthroughTimeout, c.Timeout),
	}
	if len(c.Param) > 0 {
		opts = append(opts, restep.Params(c.Param))
	}
	for k, v := range c.Header {
		opts = append(opts, restep.WithHeaders(restep.Header{Name: k, Value: v}))
	}
	if c.Body != "" {
		var body any
		if err := json.Unmarshal([]byte(c.Body), &body); err != nil {
			return fmt.Errorf("--body: %w", err)
		}
		opts = append(opts, restep.Body(body))
	}

	reply, err := client.Call(context.Background(), c.Name, values, opts...)
	if reply != nil {
		if perr := printReply(os.Stdout, reply); perr != nil {
			return perr
		}
	}
	return err
}

// loadClient builds a client from the definition file. A non-empty baseURL
// replaces the file's base_url.
func loadClient(cli *CLI, baseURL string, logger *slog.Logger) (*restep.Client, error) {
	f, err := config.Load(cli.Config)
	if err != nil {
		return nil, err
	}
	if baseURL != "" {
		f.BaseURL = baseURL
	}

	headers := &middleware.HeadersConfig{UserAgent: "restep/" + Version()}
	if cli.Token != "" {
		headers.Authorization = "Bearer " + cli.Token
	}

	client := restep.NewClient(nil).
		WithLogger(logger).
		WithInterceptor(middleware.DefaultHeaders(headers))
	if cli.Verbose {
		client.WithInterceptor(middleware.LoggingInterceptor(logger))
	}
	if err := f.Apply(client); err != nil {
		return nil, err
	}
	return client, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// parseValue reads a command line argument as an integer, float or bool
// when it looks like one, and as a string otherwise.
func parseValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func printReply(w io.Writer, reply any) error {
	switch r := reply.(type) {
	case *restep.Response:
		fmt.Fprintf(os.Stderr, "status: %d\n", r.Status)
		return printBody(w, r.Body)
	case restep.Result:
		if !r.OK() {
			return r.Err
		}
		if r.Response != nil {
			return printReply(w, r.Response)
		}
		return nil
	default:
		return printBody(w, reply)
	}
}

func printBody(w io.Writer, body any) error {
	switch b := body.(type) {
	case nil:
		return nil
	case []byte:
		_, err := w.Write(b)
		return err
	case string:
		_, err := io.WriteString(w, b)
		return err
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	}
}

// exitCode maps an error to a process exit status by its classification.
func exitCode(err error) int {
	var cfgErr *config.Issue
	if errors.As(err, &cfgErr) {
		return 3
	}
	switch restep.CodeOf(err) {
	case restep.CodeInvalidArgument, restep.CodeNotFound:
		return 2
	default:
		return 1
	}
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("restep"),
		kong.Description("Call REST endpoints declared in a YAML definition file."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(cli); err != nil {
		fmt.Fprintf(os.Stderr, "restep: %v\n", err)
		os.Exit(exitCode(err))
	}
}
