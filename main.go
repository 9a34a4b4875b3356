package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"copypath/internal/clipboard"
	"copypath/internal/config"
	"copypath/internal/copier"
	"copypath/internal/logging"
	"copypath/internal/model"
	"copypath/internal/tree"
	"copypath/internal/tui"
	"copypath/internal/web"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"github.com/tcnksm/go-latest"
)

func checkUpdate(currentVer string) {
	githubTag := &latest.GithubTag{
		Owner:      "copypath",
		Repository: "copypath",
	}

	res, err := latest.Check(githubTag, currentVer)
	if err != nil {
		return // Silently fail
	}

	if res.Outdated {
		fmt.Printf("\n✨ A new version is available: %s (you have %s)\n", res.Current, currentVer)
		fmt.Println("👉 Download it from https://github.com/copypath/copypath/releases")
	} else if pflag.Lookup("update").Changed {
		fmt.Printf("✅ You are using the latest version: %s\n", currentVer)
	}
}

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: copypath [options]\n\n")
		fmt.Fprintf(os.Stderr, "copypath browses a folder and copies the absolute path of files and\n")
		fmt.Fprintf(os.Stderr, "folders to the clipboard.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  copypath                      # Start TUI mode in the current folder\n")
		fmt.Fprintf(os.Stderr, "  copypath -d ~/notes -d ~/work # Browse two roots, tab switches\n")
		fmt.Fprintf(os.Stderr, "  copypath -P docs/readme.md    # Copy one path and exit\n")
		fmt.Fprintf(os.Stderr, "  copypath --list --json        # Print the top level as JSON\n")
		fmt.Fprintf(os.Stderr, "  copypath --web -p 9000        # Serve the copy API on port 9000\n")
	}

	pflag.StringSliceP("root", "d", nil, "Root folder to browse (repeatable; default: current folder)")
	configFlag := pflag.StringP("config", "c", "", "Config file (default: ./.copypath.yaml or the user config dir)")
	pflag.String("clipboard", "", "Clipboard backend: auto, system or osc52")
	pflag.Bool("show-hidden", false, "Show dotfiles")
	pflag.Bool("watch", true, "Refresh the tree when files change")
	pflag.CountP("verbose", "v", "Increase log verbosity (repeatable)")
	webFlag := pflag.BoolP("web", "w", false, "Start Web Mode on http://localhost:8080")
	pflag.IntP("port", "p", config.DefaultPort, "Port for Web Mode")
	printFlag := pflag.StringP("print", "P", "", "Copy the absolute path of a root-relative path and exit")
	rootPathFlag := pflag.Bool("root-path", false, "Copy the root path and exit")
	listFlag := pflag.BoolP("list", "l", false, "List the root folder instead of starting the TUI")
	jsonFlag := pflag.BoolP("json", "j", false, "Output as JSON (with --list, --print or --root-path)")
	versionFlag := pflag.BoolP("version", "V", false, "Print version information")
	updateFlag := pflag.BoolP("update", "u", false, "Check for latest version")
	helpFlag := pflag.BoolP("help", "h", false, "Show this help message")
	pflag.Parse()

	if *helpFlag {
		pflag.Usage()
		return
	}

	if *versionFlag {
		fmt.Printf("copypath version %s\n", model.Version)
		return
	}

	if *updateFlag {
		checkUpdate(model.Version)
		return
	}

	cfg, err := config.Load(*configFlag, pflag.CommandLine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	interactive := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	tuiMode := interactive && !*webFlag && !*listFlag && !*rootPathFlag && !pflag.Lookup("print").Changed
	logging.SetupLogger(cfg.Verbose, !tuiMode)
	logger := logging.GetLogger("main")
	logger.Debug().Str("config", cfg.FileUsed).Strs("roots", cfg.Roots).Msg("configuration loaded")

	// The TUI renderer and OSC 52 copies share the terminal.
	term := clipboard.NewTerminal(os.Stdout)
	sink, err := clipboard.New(cfg.Clipboard.Backend, term)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	switch {
	case *webFlag:
		runWebMode(cfg, sink)
	case pflag.Lookup("print").Changed:
		runCopyMode(cfg, sink, printFlag, *jsonFlag)
	case *rootPathFlag:
		runCopyMode(cfg, sink, nil, *jsonFlag)
	case *listFlag || !interactive:
		runListMode(os.Stdout, cfg, *jsonFlag)
	default:
		runTuiMode(cfg, sink, term)
	}
}

func runWebMode(cfg *config.Config, sink clipboard.Sink) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Starting copypath web server at http://localhost:%d\n", cfg.Web.Port)
	fmt.Printf("Go to http://localhost:%d in your browser.\n", cfg.Web.Port)

	srv := web.NewServer(web.Config{
		Roots:      copier.NewRoots(cfg.Roots),
		Sink:       sink,
		Port:       cfg.Web.Port,
		ShowHidden: cfg.ShowHidden,
	})
	if err := srv.Serve(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runCopyMode copies rel (or the root when rel is nil) and reports the
// outcome. The exit status is 1 when nothing was copied.
func runCopyMode(cfg *config.Config, sink clipboard.Sink, rel *string, asJSON bool) {
	var messages []string
	c := copier.New(copier.NewRoots(cfg.Roots), sink, copier.NotifierFunc(func(msg string) {
		messages = append(messages, msg)
	}))

	var res model.CopyResult
	if rel == nil {
		res = c.CopyRootPath(context.Background())
	} else {
		res = c.CopyAbsolutePath(context.Background(), model.TreeNode{Path: filepath.ToSlash(*rel)})
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{
			"state":    res.State.String(),
			"path":     res.Path,
			"reason":   res.Reason,
			"messages": messages,
		})
	} else {
		for _, msg := range messages {
			fmt.Println(msg)
		}
	}
	if !res.OK() {
		os.Exit(1)
	}
}

func runListMode(w io.Writer, cfg *config.Config, asJSON bool) {
	roots := copier.NewRoots(cfg.Roots)
	root, ok := roots.RootPath()
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: %s: %s\n", roots.Current(), copier.MsgUnsupportedRoot)
		os.Exit(1)
	}

	t := tree.New(root, cfg.ShowHidden)
	if err := t.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(tree.Snapshot(t.Rows(), -1, -1))
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Kind", "Name", "Size", "Modified", "Absolute path"})
	for _, n := range t.Rows()[1:] {
		size := ""
		if n.Kind == model.KindFile {
			size = humanize.IBytes(uint64(n.Size))
		}
		tw.AppendRow(table.Row{n.Kind, n.Name, size, humanize.Time(n.ModTime), t.Abs(n)})
	}
	tw.Render()
	_, _ = fmt.Fprintf(w, "(%d entries in %s)\n", t.Len()-1, root)
}

func runTuiMode(cfg *config.Config, sink clipboard.Sink, out io.Writer) {
	m := tui.InitialModel(cfg, sink)
	p := tea.NewProgram(m, tea.WithOutput(out), tea.WithAltScreen(), tea.WithMouseAllMotion())
	final, err := p.Run()
	if fm, ok := final.(tui.AppModel); ok {
		fm.Close()
	}
	if err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
