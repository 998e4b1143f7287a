package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/sxlijin/if-change-then-change/internal/check"
	"github.com/sxlijin/if-change-then-change/internal/config"
	gh "github.com/sxlijin/if-change-then-change/internal/github"
	f "github.com/sxlijin/if-change-then-change/pkg/functional"
	"github.com/sxlijin/if-change-then-change/pkg/ictc"
)

// CommentPrefix opens every results comment, so that reruns find and update
// the previous comment instead of stacking new ones.
const CommentPrefix = "## If-Change-Then-Change"

// OutputData holds the result of a run in the form written to GITHUB_OUTPUT
type OutputData struct {
	Diagnostics []string `json:"diagnostics"`
	Success     bool     `json:"success"`
	Message     string   `json:"message"`
}

// Config holds the application configuration
type Config struct {
	Token         string
	RepoDir       string
	PR            int
	Repo          string
	Verbose       bool
	AddComments   bool
	InfoBuffer    io.Writer
	WarningBuffer io.Writer
}

// App represents the application with its dependencies
type App struct {
	Conf   *config.Config
	config *Config
	client gh.Client
}

// New creates a new App instance with the given configuration
func New(cfg Config) (*App, error) {
	repoSplit := strings.Split(cfg.Repo, "/")
	if len(repoSplit) != 2 {
		return nil, fmt.Errorf("invalid repo name: %s", cfg.Repo)
	}
	owner := repoSplit[0]
	repo := repoSplit[1]

	client := gh.NewClient(owner, repo, cfg.Token)
	app := &App{
		config: &cfg,
		client: client,
	}

	return app, nil
}

func (a *App) printDebug(format string, args ...interface{}) {
	if a.config.Verbose {
		_, _ = fmt.Fprintf(a.config.InfoBuffer, format, args...)
	}
}

func (a *App) printWarn(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(a.config.WarningBuffer, format, args...)
}

// Run executes the application logic: fetch the PR and its diff, check the
// workspace checkout against it, and report the findings on the PR.
func (a *App) Run() (*OutputData, error) {
	if err := a.client.InitPR(a.config.PR); err != nil {
		return &OutputData{}, fmt.Errorf("InitPR Error: %v", err)
	}
	a.printDebug("PR: %d\n", a.client.PR().GetNumber())

	conf, err := config.ReadConfig(a.config.RepoDir)
	if err != nil {
		a.printWarn("Error reading ictc.toml - using default config\n")
	}
	a.Conf = conf

	a.printDebug("Getting diff for PR %d\n", a.config.PR)
	diffText, err := a.client.GetPRDiff()
	if err != nil {
		return &OutputData{}, fmt.Errorf("GetPRDiff Error: %v", err)
	}

	diagnostics, err := check.Run(strings.NewReader(diffText), check.Options{
		Reader: check.NewDirFileReader(a.config.RepoDir),
		Ignore: conf.Ignore,
	})
	if err != nil {
		return &OutputData{}, fmt.Errorf("Check Error: %v", err)
	}

	outputData := &OutputData{
		Diagnostics: f.Map(diagnostics, func(d ictc.Diagnostic) string { return d.String() }),
	}

	if len(diagnostics) == 0 {
		outputData.Success = true
		outputData.Message = "If-change-then-change obligations satisfied"
		return outputData, nil
	}

	outputData.Message = fmt.Sprintf("%d if-change-then-change obligations not satisfied", len(diagnostics))
	if a.config.AddComments {
		if err := a.upsertComment(FormatComment(diagnostics)); err != nil {
			return outputData, fmt.Errorf("Comment Error: %v", err)
		}
	}
	return outputData, nil
}

// upsertComment updates the existing results comment if one exists, otherwise
// adds a new one.
func (a *App) upsertComment(comment string) error {
	commentID, found, err := a.client.FindExistingComment(CommentPrefix, nil)
	if err != nil {
		return err
	}
	if found {
		a.printDebug("Updating existing comment %d\n", commentID)
		return a.client.UpdateComment(commentID, comment)
	}
	return a.client.AddComment(comment)
}

// FormatComment renders diagnostics as a PR comment body.
func FormatComment(diagnostics []ictc.Diagnostic) string {
	var b strings.Builder
	b.WriteString(CommentPrefix)
	b.WriteString("\n\nThis change leaves some co-change obligations unsatisfied:\n")
	for _, diagnostic := range diagnostics {
		_, _ = fmt.Fprintf(&b, "- `%s`\n", diagnostic)
	}
	return b.String()
}
