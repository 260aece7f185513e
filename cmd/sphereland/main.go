package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/1broseidon/sphereland/internal/config"
	"github.com/1broseidon/sphereland/internal/ipc"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "sessions":
		os.Exit(runSessions(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: sphereland <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run                 Connect to the spatial host and present windows (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  sessions            List presented windows")
	fmt.Fprintln(w, "  reload              Reload configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'sphereland <command> --help' for command-specific options.")
}

// newFlagSet returns a flag set that prints usage to stderr.
func newFlagSet(name, usage string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, usage)
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	return fs
}

// parseFlags returns the exit code to use when parsing stops the command.
func parseFlags(fs *pflag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

// controlClient resolves the control socket from --socket, then the config
// file, then the runtime default.
func controlClient(socket, cfgPath string) *ipc.Client {
	if socket != "" {
		return ipc.NewClientAt(socket)
	}
	if res, err := loadConfig(cfgPath); err == nil {
		return ipc.NewClientAt(res.Config.ControlSocket)
	}
	return ipc.NewClient()
}

func runStatus(args []string) int {
	fs := newFlagSet("status", "Usage: sphereland status [--socket PATH]\n\nShow daemon status via IPC.")
	socket := fs.String("socket", "", "Control socket path")
	cfgPath := fs.StringP("config", "c", "", "Config file path (default: ~/.config/sphereland/config.yaml)")
	if rc, ok := parseFlags(fs, args); !ok {
		return rc
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := controlClient(*socket, *cfgPath).GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printStatus(os.Stdout, status, time.Now())
	return 0
}

func printStatus(w io.Writer, status *ipc.StatusData, now time.Time) {
	started := now.Add(-time.Duration(status.UptimeSeconds) * time.Second)
	fmt.Fprintf(w, "daemon_running: %v\n", status.DaemonRunning)
	fmt.Fprintf(w, "sessions:       %d\n", status.SessionCount)
	fmt.Fprintf(w, "surfaces:       %d\n", status.SurfaceCount)
	fmt.Fprintf(w, "frames:         %s\n", humanize.Comma(int64(status.Frames)))
	fmt.Fprintf(w, "started:        %s\n", humanize.RelTime(started, now, "ago", "from now"))
}

func runSessions(args []string) int {
	fs := newFlagSet("sessions", "Usage: sphereland sessions [--json] [--socket PATH]\n\nList the windows the daemon presents.")
	socket := fs.String("socket", "", "Control socket path")
	cfgPath := fs.StringP("config", "c", "", "Config file path (default: ~/.config/sphereland/config.yaml)")
	asJSON := fs.Bool("json", false, "Print JSON (default when stdout is not a terminal)")
	if rc, ok := parseFlags(fs, args); !ok {
		return rc
	}

	data, err := controlClient(*socket, *cfgPath).ListSessions()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	if *asJSON || !isTTY {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	width := 0
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
	}
	printSessions(os.Stdout, data, width)
	return 0
}

func printSessions(w io.Writer, data *ipc.SessionsData, width int) {
	if len(data.Sessions) == 0 {
		fmt.Fprintln(w, "no sessions")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tSTATE\tPIXELS\tMETERS\tCHILDREN")
	for _, s := range data.Sessions {
		state := "shown"
		if !s.Enabled {
			state = "captured"
		}
		children := "-"
		if len(s.Children) > 0 {
			children = strings.Join(s.Children, ",")
		}
		if limit := width / 3; limit > 1 && len(children) > limit {
			children = children[:limit-1] + "…"
		}
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%.3fx%.3f\t%s\n",
			s.Session, state, s.Width, s.Height, s.PhysicalWidth, s.PhysicalHeight, children)
	}
	tw.Flush()
}

func runReload(args []string) int {
	fs := newFlagSet("reload", "Usage: sphereland reload [--socket PATH]\n\nAsk the daemon to reload its configuration.")
	socket := fs.String("socket", "", "Control socket path")
	cfgPath := fs.StringP("config", "c", "", "Config file path (default: ~/.config/sphereland/config.yaml)")
	if rc, ok := parseFlags(fs, args); !ok {
		return rc
	}
	if err := controlClient(*socket, *cfgPath).Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("config reloaded")
	return 0
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}
