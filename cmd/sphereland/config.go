package main

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/sphereland/internal/config"
)

const configPathUsage = "Config file path (default: ~/.config/sphereland/config.yaml)"

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  sphereland config validate [--path PATH]")
	fmt.Fprintln(w, "  sphereland config print [--path PATH] [--defaults]")
	fmt.Fprintln(w, "  sphereland config explain [--path PATH] <key>")
}

func runConfig(args []string) int {
	if len(args) == 0 {
		printConfigUsage(os.Stderr)
		return 2
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "help", "-h", "--help":
		printConfigUsage(os.Stdout)
		return 0
	case "validate", "print", "explain":
	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", sub)
		printConfigUsage(os.Stderr)
		return 2
	}

	fs := newFlagSet(sub, "Usage: sphereland config "+sub+" [--path PATH]")
	path := fs.String("path", "", configPathUsage)
	defaults := false
	if sub == "print" {
		fs.BoolVar(&defaults, "defaults", false, "Print built-in defaults (no files)")
	}
	if rc, ok := parseFlags(fs, rest); !ok {
		return rc
	}
	if sub == "explain" && fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "explain requires exactly one <key>")
		return 2
	}

	var res *config.LoadResult
	if !defaults {
		var err error
		if res, err = loadConfig(*path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	var err error
	switch sub {
	case "validate":
		fmt.Println("config: ok")
	case "print":
		cfg := config.DefaultConfig()
		if res != nil {
			cfg = res.Config
		}
		err = printYAML(os.Stdout, cfg)
	case "explain":
		err = explainKey(os.Stdout, res, fs.Arg(0))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func printYAML(w io.Writer, v any) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func explainKey(w io.Writer, res *config.LoadResult, key string) error {
	value, src, err := config.Explain(res, key)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "path: %s\n", key)
	fmt.Fprintf(w, "source: %s\n", formatSource(src))
	fmt.Fprintln(w, "value:")
	return printYAML(w, value)
}

func formatSource(src config.Source) string {
	switch {
	case src.Kind == config.SourceFile && src.Line > 0:
		return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
	case src.Kind == config.SourceFile && src.File != "":
		return "file:" + src.File
	case src.Kind == config.SourceDefault && src.Name != "":
		return "default:" + src.Name
	default:
		return string(src.Kind)
	}
}
