package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/oplc-lang/oplc"
	"github.com/oplc-lang/oplc/diagnostics"
	"github.com/oplc-lang/oplc/driver"
	"github.com/oplc-lang/oplc/model"
	"github.com/oplc-lang/oplc/script"
)

// Context carries the global flags into each sub-command.
type Context struct {
	Config  string
	Quiet   bool
	NoColor bool
}

// ParseCmd parses a model (plus optional data files), expands it, and
// prints the model report.
type ParseCmd struct {
	Model  string   `arg:"" help:"Model file (.mod)" type:"existingfile"`
	Data   []string `arg:"" optional:"" help:"Data files (.dat)" type:"existingfile"`
	Format string   `help:"Report format" enum:"text,yaml" default:"text"`
}

// CheckCmd parses and expands without printing the report; the exit code
// is the result.
type CheckCmd struct {
	Model string   `arg:"" help:"Model file (.mod)" type:"existingfile"`
	Data  []string `arg:"" optional:"" help:"Data files (.dat)" type:"existingfile"`
}

// ReportCmd prints only the repository report for a model.
type ReportCmd struct {
	Model  string   `arg:"" help:"Model file (.mod)" type:"existingfile"`
	Data   []string `arg:"" optional:"" help:"Data files (.dat)" type:"existingfile"`
	Format string   `help:"Report format" enum:"text,yaml" default:"text"`
}

var cli struct {
	Config  string `help:"Config file path" default:"oplc.yaml"`
	Quiet   bool   `help:"Suppress diagnostics output" short:"q"`
	NoColor bool   `help:"Disable colored output"`

	Parse  ParseCmd  `cmd:"" help:"Parse a model, expand it, and print the report"`
	Check  CheckCmd  `cmd:"" help:"Parse and expand; exit non-zero on any error"`
	Report ReportCmd `cmd:"" help:"Print the model report"`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("oplc"),
		kong.Description("Front-end compiler for the oplc algebraic modeling language"),
		kong.UsageOnError(),
	)
	err := ctx.Run(&Context{Config: cli.Config, Quiet: cli.Quiet, NoColor: cli.NoColor})
	ctx.FatalIfErrorf(err)
}

// runSession is the shared pipeline: load config, parse the model, bind
// each data file, expand.
func runSession(ctx *Context, modelPath string, dataPaths []string) (*driver.Session, *oplc.Config, error) {
	cfg, err := oplc.LoadConfig(ctx.Config)
	if err != nil {
		return nil, nil, err
	}
	profile, err := oplc.ProfileFromName(cfg.Profile)
	if err != nil {
		return nil, nil, err
	}

	engine := script.NewCELEngine()
	engine.RecursionLimit = cfg.Script.RecursionLimit
	session := driver.NewSession(profile,
		driver.WithScriptEngine(engine,
			script.WithTimeout(time.Duration(cfg.Script.TimeoutSeconds)*time.Second),
			script.WithEnvironment(cfg.Environment()),
		),
	)

	src, err := os.ReadFile(modelPath)
	if err != nil {
		return nil, nil, err
	}
	if err := session.ParseModel(string(src)); err != nil {
		return nil, nil, err
	}

	for _, path := range dataPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		if err := session.BindData(string(data)); err != nil {
			return nil, nil, err
		}
	}

	session.Expand()
	return session, cfg, nil
}

func reportFormat(name string) model.ReportFormat {
	if name == "yaml" {
		return model.ReportYAML
	}
	return model.ReportText
}

func finish(ctx *Context, session *driver.Session) error {
	if !ctx.Quiet {
		session.Diag.Render(os.Stderr, !ctx.NoColor)
	}
	if session.Diag.HasErrors() {
		return fmt.Errorf("%d errors", len(session.Diag.Errors()))
	}
	return nil
}

func (c *ParseCmd) Run(ctx *Context) error {
	session, _, err := runSession(ctx, c.Model, c.Data)
	if err != nil {
		return err
	}
	report, err := session.Repo.GenerateReport(reportFormat(c.Format))
	if err != nil {
		return err
	}
	fmt.Print(report)
	return finish(ctx, session)
}

func (c *CheckCmd) Run(ctx *Context) error {
	session, _, err := runSession(ctx, c.Model, c.Data)
	if err != nil {
		return err
	}
	if !ctx.Quiet && session.Diag.Outcome() == diagnostics.OutcomeSuccess {
		fmt.Fprintf(os.Stderr, "%s: ok\n", c.Model)
	}
	return finish(ctx, session)
}

func (c *ReportCmd) Run(ctx *Context) error {
	session, _, err := runSession(ctx, c.Model, c.Data)
	if err != nil {
		return err
	}
	report, err := session.Repo.GenerateReport(reportFormat(c.Format))
	if err != nil {
		return err
	}
	fmt.Print(report)
	return finish(ctx, session)
}
