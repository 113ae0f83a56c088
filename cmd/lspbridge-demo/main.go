// Command lspbridge-demo drives the runtime end to end from a terminal:
// it spawns one configured language server, opens a file into an
// in-memory buffer, and logs diagnostics/log lines to stderr as they
// arrive. It exists for manual verification only (SPEC_FULL.md §1); the
// command wiring mirrors the teacher's cmd/tally/cmd package
// (github.com/urfave/cli/v3, one *cli.Command per subcommand).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wharflab/lspbridge/client"
	"github.com/wharflab/lspbridge/diagnostics"
	"github.com/wharflab/lspbridge/internal/config"
	"github.com/wharflab/lspbridge/internal/testhost"
	"github.com/wharflab/lspbridge/internal/version"
	"github.com/wharflab/lspbridge/protocol"
	"github.com/wharflab/lspbridge/service"
)

func main() {
	app := &cli.Command{
		Name:    "lspbridge-demo",
		Usage:   "drive the lspbridge client runtime against one language server",
		Version: version.Version(),
		Commands: []*cli.Command{
			runCommand(),
			versionCommand(),
		},
	}
	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "lspbridge-demo:", err)
		os.Exit(1)
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "print version information",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "output version information as JSON"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(version.GetInfo())
			}
			fmt.Printf("lspbridge-demo version %s\n", version.Version())
			return nil
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "spawn a language server and open one file against it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Usage: "registered server name from config (e.g. gopls)", Required: true},
			&cli.StringFlag{Name: "workspace", Usage: "workspace root", Value: "."},
			&cli.StringFlag{Name: "file", Usage: "file to open", Required: true},
			&cli.DurationFlag{Name: "watch", Usage: "how long to idle and watch for server-pushed events", Value: 5 * time.Second},
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	workspace, err := filepath.Abs(cmd.String("workspace"))
	if err != nil {
		return fmt.Errorf("resolve workspace: %w", err)
	}

	cfg, err := config.Load(workspace)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	serverName := cmd.String("server")
	serverCfg, ok := cfg.Servers[serverName]
	if !ok {
		return fmt.Errorf("no server %q registered (checked %s)", serverName, cfg.ConfigFile)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	env := os.Environ()
	for k, v := range serverCfg.Env {
		env = append(env, k+"="+v)
	}

	rootURI := protocol.DocumentURI("file://" + workspace)

	buffers := testhost.NewBufferManager()
	project, err := testhost.NewProjectModel(workspace, log)
	if err != nil {
		log.Warn("run: project watcher unavailable", "error", err)
		project = nil
	}
	if project != nil {
		defer project.Close()
	}
	host := testhost.New(buffers, project)

	svc, err := service.New(service.Config{
		Command: append([]string{serverCfg.Program}, serverCfg.Args...),
		Cwd:     workspace,
		Env:     env,
		NewClientOptions: func(int) client.Options {
			return client.Options{
				RootURI:   &rootURI,
				Host:      host,
				Logger:    log,
				Languages: serverCfg.Languages,
			}
		},
		Logger: log,
	})
	if err != nil {
		return fmt.Errorf("configure service: %w", err)
	}

	svc.OnReady(func(c *client.Client) {
		c.Diagnostics().Subscribe(func(uri protocol.DocumentURI, entries []diagnostics.Entry) {
			log.Info("diagnostics", "uri", uri, "count", len(entries))
		})
	})

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	defer func() { _ = svc.Stop(ctx) }()

	path := cmd.String("file")
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	uri := protocol.DocumentURI("file://" + path)
	languageID := languageFor(path, serverCfg.Languages)
	buffers.Open(uri, languageID, string(content))

	select {
	case <-time.After(cmd.Duration("watch")):
	case <-ctx.Done():
	}

	return nil
}

func languageFor(path string, languages []string) string {
	if len(languages) > 0 {
		return languages[0]
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "plaintext"
	}
	return ext
}
