// Command jsrun is the reference host for the engine (spec §6): a small
// CLI exercising pkg/engine's embedding surface the way a real consumer
// would, in the same root-command-plus-subcommands shape as the teacher's
// demo CLI (demo/cmd/main.go).
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/oxhq/jsengine/internal/jserr"
	"github.com/oxhq/jsengine/internal/object"
	"github.com/oxhq/jsengine/pkg/engine"
)

var (
	optionsFile string
	cacheDSN    string
	cacheOn     bool
	moduleRoot  string
)

func main() {
	root := &cobra.Command{
		Use:   "jsrun",
		Short: "Run JavaScript source with the engine",
		Long:  "jsrun loads, compiles, and runs ECMAScript source against the engine's VM.",
	}
	root.PersistentFlags().StringVar(&optionsFile, "options", "", "path to a YAML options file (JSENGINE_* env vars override it)")
	root.PersistentFlags().StringVar(&cacheDSN, "cache-dsn", "", "compiled-code cache DSN (sqlite file, :memory:, or a libsql URL)")
	root.PersistentFlags().BoolVar(&cacheOn, "cache", false, "enable the compiled-code cache")
	root.PersistentFlags().StringVar(&moduleRoot, "module-root", ".", "root directory module specifiers resolve against")

	root.AddCommand(evalCmd(), runCmd(), replCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildOptions() (engine.Options, error) {
	opts, err := engine.LoadOptions(optionsFile)
	if err != nil {
		return opts, fmt.Errorf("loading options: %w", err)
	}
	if moduleRoot != "" {
		opts.ModuleRoot = moduleRoot
	}
	if cacheOn {
		opts.CacheEnabled = true
	}
	if cacheDSN != "" {
		opts.CacheDSN = cacheDSN
	}
	return opts, nil
}

func evalCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "eval <source>",
		Short: "Evaluate a script expression and print its completion value",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			opts, err := buildOptions()
			exitOn(err, jsonOut)
			e, err := engine.New(opts)
			exitOn(err, jsonOut)
			defer e.Close()

			v, err := e.Eval(args[0])
			exitOnJsError(err, jsonOut)
			exitOnJsError(e.RunJobs(), jsonOut)
			fmt.Println(display(v))
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print a failure as a JSON-encoded error instead of plain text")
	return cmd
}

func runCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Run a file as an entry module",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			opts, err := buildOptions()
			exitOn(err, jsonOut)
			e, err := engine.New(opts)
			exitOn(err, jsonOut)
			defer e.Close()

			_, err = e.RunModule(args[0])
			exitOnJsError(err, jsonOut)
			exitOnJsError(e.RunJobs(), jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print a failure as a JSON-encoded error instead of plain text")
	return cmd
}

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive read-eval-print loop",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			opts, err := buildOptions()
			exitOn(err, false)
			e, err := engine.New(opts)
			exitOn(err, false)
			defer e.Close()
			runRepl(e)
		},
	}
}

func runRepl(e *engine.Engine) {
	interactive := isatty.IsTerminal(os.Stdin.Fd())
	scanner := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			fmt.Fprint(os.Stdout, "> ")
		}
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		v, err := e.EvalDynamic(line)
		if err != nil {
			printErr(err, false)
			continue
		}
		if err := e.RunJobs(); err != nil {
			printErr(err, false)
			continue
		}
		fmt.Println(display(v))
	}
}

func display(v engine.Value) string {
	if v.IsUndefined() {
		return "undefined"
	}
	if v.IsNull() {
		return "null"
	}
	if obj, ok := object.Wrap(v); ok && obj.IsCallable() {
		return "[Function]"
	}
	s, err := object.ToString(v)
	if err != nil {
		return "<unprintable>"
	}
	return s.String()
}

func exitOn(err error, jsonOut bool) {
	if err == nil {
		return
	}
	printErr(jserr.Wrap(jserr.CodeNative, err.Error(), err), jsonOut)
	os.Exit(1)
}

func exitOnJsError(err error, jsonOut bool) {
	if err == nil {
		return
	}
	var je *jserr.JsError
	if !asJsError(err, &je) {
		je = jserr.Wrap(jserr.CodeNative, err.Error(), err)
	}
	printErr(je, jsonOut)
	os.Exit(jserr.ExitCode(je))
}

func asJsError(err error, out **jserr.JsError) bool {
	je, ok := err.(*jserr.JsError)
	if !ok {
		return false
	}
	*out = je
	return true
}

func printErr(je *jserr.JsError, jsonOut bool) {
	if jsonOut {
		fmt.Println(je.JSON())
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", je.Error())
}
