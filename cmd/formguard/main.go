package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/goliatone/go-formguard"
	"github.com/goliatone/go-formguard/internal/prompt"
	"github.com/goliatone/go-formguard/pkg/fieldpath"
	"github.com/goliatone/go-formguard/pkg/form"
	pkgopenapi "github.com/goliatone/go-formguard/pkg/openapi"
)

const usage = `Usage:
  formguard validate -rules rules.yaml -values values.yaml
  formguard validate -openapi spec.json -operation createUser -values values.yaml
  formguard prompt   (-rules rules.yaml | -openapi spec.json -operation id) [-values defaults.yaml]
`

// errInvalid marks a run whose form did not validate.
var errInvalid = errors.New("form is invalid")

type options struct {
	rules     string
	openapi   string
	operation string
	values    string
	jsonOut   bool
	debug     bool
}

func main() {
	log.SetFlags(0)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, nil)
	switch {
	case err == nil:
	case errors.Is(err, errInvalid):
		os.Exit(1)
	case errors.Is(err, flag.ErrHelp):
		os.Exit(2)
	default:
		log.Fatalf("formguard: %v", err)
	}
}

// run executes a subcommand. driver overrides the terminal prompt driver.
func run(ctx context.Context, args []string, stdout io.Writer, driver prompt.Driver) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return flag.ErrHelp
	}
	cmd, rest := args[0], args[1:]

	fs := flag.NewFlagSet("formguard "+cmd, flag.ContinueOnError)
	fs.SetOutput(stdout)
	var opts options
	fs.StringVar(&opts.rules, "rules", "", "settings file (YAML or JSON) declaring rules")
	fs.StringVar(&opts.openapi, "openapi", "", "OpenAPI document path or URL")
	fs.StringVar(&opts.operation, "operation", "", "operation id whose request body declares the rules")
	fs.StringVar(&opts.values, "values", "", "values file (YAML or JSON)")
	fs.BoolVar(&opts.jsonOut, "json", false, "print the result as JSON")
	fs.BoolVar(&opts.debug, "debug", false, "enable development logging")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	logger := zap.NewNop()
	if opts.debug {
		dev, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		logger = dev
		defer func() { _ = logger.Sync() }()
	}

	switch cmd {
	case "validate":
		if opts.values == "" {
			return errors.New("validate: -values is required")
		}
		return validate(ctx, opts, logger, stdout)
	case "prompt":
		return interactive(ctx, opts, logger, stdout, driver)
	}
	fmt.Fprint(stdout, usage)
	return fmt.Errorf("unknown command %q", cmd)
}

func build(ctx context.Context, opts options, logger *zap.Logger, values map[string][]string) (*formguard.Validator, error) {
	switch {
	case opts.rules != "" && opts.openapi != "":
		return nil, errors.New("use either -rules or -openapi")
	case opts.rules != "":
		settings, err := formguard.LoadConfig(opts.rules)
		if err != nil {
			return nil, err
		}
		f := settings.Form()
		fill(f, values, declared(settings.Rules))
		return formguard.NewFromConfig(f, settings, logger)
	case opts.openapi != "":
		if opts.operation == "" {
			return nil, errors.New("-operation is required with -openapi")
		}
		src, err := pkgopenapi.SourceFromString(opts.openapi)
		if err != nil {
			return nil, err
		}
		decls, err := formguard.RulesFromOpenAPI(ctx, src, opts.operation, pkgopenapi.WithHTTPFallback(0))
		if err != nil {
			return nil, err
		}
		f := form.New("", "POST")
		fill(f, values, declared(decls))
		return formguard.New(f, formguard.WithRules(decls), formguard.WithLogger(logger))
	}
	return nil, errors.New("one of -rules or -openapi is required")
}

// declared lists the concrete field names of a rule map in bracket form.
func declared(decls map[string]any) []string {
	var names []string
	for name := range decls {
		if !fieldpath.IsWildcard(name) {
			names = append(names, fieldpath.Canonical(name))
		}
	}
	sort.Strings(names)
	return names
}

// fill adds a control per submitted value and an empty one for every
// declared field without a value.
func fill(f *form.Form, values map[string][]string, names []string) {
	for _, c := range form.FromValues(f.Action, f.Method, values).Controls() {
		f.Add(c)
	}
	for _, name := range names {
		if len(f.ByName(name)) == 0 {
			f.Add(&form.Control{Name: name, Type: form.TypeText})
		}
	}
}

type result struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
	Values map[string]any    `json:"values,omitempty"`
}

func validate(ctx context.Context, opts options, logger *zap.Logger, stdout io.Writer) error {
	values, err := readValues(opts.values)
	if err != nil {
		return err
	}
	v, err := build(ctx, opts, logger, values)
	if err != nil {
		return err
	}
	defer v.Destroy()

	if _, err := v.Form(); err != nil {
		return err
	}
	if err := v.Wait(ctx); err != nil {
		return err
	}
	res := result{Valid: v.Valid(), Errors: v.ErrorMap()}
	if err := report(stdout, res, opts.jsonOut); err != nil {
		return err
	}
	if !res.Valid {
		return errInvalid
	}
	return nil
}

func interactive(ctx context.Context, opts options, logger *zap.Logger, stdout io.Writer, driver prompt.Driver) error {
	var values map[string][]string
	if opts.values != "" {
		var err error
		if values, err = readValues(opts.values); err != nil {
			return err
		}
	}
	v, err := build(ctx, opts, logger, values)
	if err != nil {
		return err
	}
	defer v.Destroy()

	if driver == nil {
		driver = prompt.NewSurveyDriver(stdout)
	}
	valid, err := prompt.NewSession(v, driver, prompt.WithLogger(logger)).Run(ctx)
	if err != nil {
		return err
	}
	res := result{Valid: valid, Errors: v.ErrorMap(), Values: v.FormDocument().Values()}
	if err := report(stdout, res, opts.jsonOut); err != nil {
		return err
	}
	if !valid {
		return errInvalid
	}
	return nil
}

func report(w io.Writer, res result, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	if res.Valid {
		_, err := fmt.Fprintln(w, "valid")
		return err
	}
	names := make([]string, 0, len(res.Errors))
	for name := range res.Errors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "%s: %s\n", name, res.Errors[name]); err != nil {
			return err
		}
	}
	return nil
}
