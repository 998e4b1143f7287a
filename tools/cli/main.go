package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/boyter/gocodewalker"
	"github.com/urfave/cli/v2"

	"github.com/sxlijin/if-change-then-change/internal/check"
	"github.com/sxlijin/if-change-then-change/internal/config"
	gh "github.com/sxlijin/if-change-then-change/internal/github"
	f "github.com/sxlijin/if-change-then-change/pkg/functional"
	"github.com/sxlijin/if-change-then-change/pkg/ictc"
)

func stripRoot(root string, path string) string {
	if root == "." {
		return path
	}
	return strings.TrimPrefix(path, root+"/")
}

func main() {
	var root string
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"v"},
		Usage:   "Print version",
	}
	cli.VersionPrinter = func(cCtx *cli.Context) {
		fmt.Println(cCtx.App.Version)
	}
	rootFlag := &cli.StringFlag{
		Name:        "root",
		Aliases:     []string{"r", "repo"},
		Value:       "./",
		Usage:       "Path to local Git repo",
		Destination: &root,
	}
	formatFlag := &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "default",
		Usage:   "Output format.  Allowed values are: default and json",
	}
	app := &cli.App{
		Name:        "ictc",
		Usage:       "CLI tool for working with if-change-then-change blocks",
		Version:     "v0.2.0.dev",
		Description: "",
		Commands: []*cli.Command{
			{
				Name:        "check",
				Aliases:     []string{"c"},
				Usage:       "Check a diff against if-change-then-change blocks",
				UsageText:   "ictc check [options] [diff-file]",
				Description: "Check a unified diff against the if-change-then-change blocks of the changed files. The diff is read from diff-file if given, otherwise from stdin.",
				Flags: []cli.Flag{
					rootFlag,
					formatFlag,
					&cli.BoolFlag{
						Name:  "fail",
						Value: false,
						Usage: "Exit non-zero when the diff leaves obligations unsatisfied",
					},
				},
				Action: func(cCtx *cli.Context) error {
					format, err := validateFormat(cCtx.String("format"))
					if err != nil {
						return err
					}
					diffText, err := readDiffInput(cCtx)
					if err != nil {
						return err
					}
					return checkDiff(root, diffText, format, cCtx.Bool("fail"))
				},
			},
			{
				Name:        "lint",
				Aliases:     []string{"l"},
				Usage:       "Find malformed if-change-then-change blocks",
				UsageText:   "ictc lint [options] [target-dir]",
				Description: "Scan the repository for malformed if-change-then-change blocks. If target-dir is specified, only scan files under that directory.",
				Flags: []cli.Flag{
					rootFlag,
				},
				Action: func(cCtx *cli.Context) error {
					target := ""
					if cCtx.NArg() > 0 {
						target = cCtx.Args().First()
					}
					return lintFiles(root, target)
				},
			},
			{
				Name:        "pr",
				Usage:       "Check a GitHub pull request",
				UsageText:   "ictc pr [options]",
				Description: "Fetch the diff of a GitHub pull request and check it against the if-change-then-change blocks of a local checkout of the head.",
				Flags: []cli.Flag{
					rootFlag,
					formatFlag,
					&cli.StringFlag{
						Name:  "gh-repo",
						Usage: "GitHub repo in owner/name form",
					},
					&cli.IntFlag{
						Name:  "pr",
						Usage: "Pull Request number",
					},
					&cli.StringFlag{
						Name:    "token",
						Usage:   "GitHub authentication token",
						EnvVars: []string{"GITHUB_TOKEN"},
					},
					&cli.BoolFlag{
						Name:  "fail",
						Value: false,
						Usage: "Exit non-zero when the diff leaves obligations unsatisfied",
					},
				},
				Action: func(cCtx *cli.Context) error {
					format, err := validateFormat(cCtx.String("format"))
					if err != nil {
						return err
					}
					return checkPR(root, cCtx.String("gh-repo"), cCtx.Int("pr"), cCtx.String("token"), format, cCtx.Bool("fail"))
				},
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func readDiffInput(cCtx *cli.Context) (string, error) {
	if cCtx.NArg() > 0 {
		content, err := os.ReadFile(cCtx.Args().First())
		if err != nil {
			return "", fmt.Errorf("error reading diff file: %w", err)
		}
		return string(content), nil
	}
	if !isStdinPiped() {
		return "", fmt.Errorf("no diff input: pass a diff file or pipe a diff to stdin")
	}
	return readStdin()
}

func checkDiff(root string, diffText string, format OutputFormat, fail bool) error {
	if rootStat, err := os.Lstat(root); err != nil || !rootStat.IsDir() {
		return fmt.Errorf("root is not a directory: %s", root)
	}
	conf, err := config.ReadConfig(root)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "WARNING: Error reading ictc.toml - using default config")
	}

	diagnostics, err := check.Run(strings.NewReader(diffText), check.Options{
		Reader: check.NewDirFileReader(root),
		Ignore: conf.Ignore,
	})
	if err != nil {
		return err
	}
	if err := printDiagnostics(diagnostics, format); err != nil {
		return err
	}
	if len(diagnostics) > 0 && (fail || conf.Enforcement.FailCheck) {
		return fmt.Errorf("found %d unsatisfied if-change-then-change obligations", len(diagnostics))
	}
	return nil
}

func lintFiles(root string, target string) error {
	if rootStat, err := os.Lstat(root); err != nil || !rootStat.IsDir() {
		return fmt.Errorf("root is not a directory: %s", root)
	}

	fileListQueue := make(chan *gocodewalker.File, 100)

	walker := gocodewalker.NewFileWalker(root, fileListQueue)
	walker.IncludeHidden = true
	walker.ExcludeDirectory = []string{".git"}

	errChan := make(chan error)

	go func() {
		err := walker.Start()
		errChan <- err
		close(errChan)
	}()

	diagnostics := make([]ictc.Diagnostic, 0)
	for file := range fileListQueue {
		path := stripRoot(root, file.Location)
		if target != "" && !strings.HasPrefix(path, target) {
			continue
		}
		content, err := os.ReadFile(file.Location)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "WARNING: Error reading %s: %v\n", path, err)
			continue
		}
		if bytes.IndexByte(content, 0) != -1 {
			// binary
			continue
		}
		_, fileDiagnostics := ictc.ParseFile(path, string(content))
		diagnostics = append(diagnostics, fileDiagnostics...)
	}

	if err := <-errChan; err != nil {
		return fmt.Errorf("error walking repo: %s", err)
	}

	ictc.SortDiagnostics(diagnostics)
	for _, diagnostic := range diagnostics {
		fmt.Println(diagnostic)
	}
	if len(diagnostics) > 0 {
		return fmt.Errorf("found %d malformed if-change-then-change blocks", len(diagnostics))
	}
	return nil
}

func checkPR(root string, ghRepo string, prID int, token string, format OutputFormat, fail bool) error {
	repoSplit := strings.Split(ghRepo, "/")
	if len(repoSplit) != 2 {
		return fmt.Errorf("invalid repo name: %s", ghRepo)
	}
	if prID == 0 {
		return fmt.Errorf("pr number is required")
	}
	if token == "" {
		return fmt.Errorf("GitHub token is required")
	}

	client := gh.NewClient(repoSplit[0], repoSplit[1], token)
	client.SetWarningBuffer(os.Stderr)
	if err := client.InitPR(prID); err != nil {
		return fmt.Errorf("InitPR error: %w", err)
	}
	diffText, err := client.GetPRDiff()
	if err != nil {
		return fmt.Errorf("GetPRDiff error: %w", err)
	}
	return checkDiff(root, diffText, format, fail)
}

type jsonDiagnostic struct {
	Path      string `json:"path"`
	StartLine *int   `json:"start_line"`
	EndLine   *int   `json:"end_line"`
	Message   string `json:"message"`
}

// toJSONDiagnostic converts line bounds to the 1-indexed inclusive form used
// for display; absent bounds become null.
func toJSONDiagnostic(d ictc.Diagnostic) jsonDiagnostic {
	out := jsonDiagnostic{Path: d.Position.Path, Message: d.Message}
	if d.Position.StartLine != ictc.NoLine {
		start := d.Position.StartLine + 1
		end := start
		if d.Position.EndLine != ictc.NoLine {
			end = d.Position.EndLine
		}
		out.StartLine = &start
		out.EndLine = &end
	}
	return out
}

func printDiagnostics(diagnostics []ictc.Diagnostic, format OutputFormat) error {
	switch format {
	case FormatJSON:
		jsonString, err := json.Marshal(f.Map(diagnostics, toJSONDiagnostic))
		if err != nil {
			return err
		}
		fmt.Println(string(jsonString))
	default:
		for _, diagnostic := range diagnostics {
			fmt.Println(diagnostic)
		}
	}
	return nil
}
