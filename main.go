package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sxlijin/if-change-then-change/internal/app"
)

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func ignoreError[V any, E error](res V, _ E) V {
	return res
}

var (
	WarningBuffer = bytes.NewBuffer([]byte{})
	InfoBuffer    = bytes.NewBuffer([]byte{})
)

type Flags struct {
	Token   *string
	RepoDir *string
	PR      *int
	Repo    *string
	Verbose *bool
}

var flags *Flags

func initFlags(f *Flags) error {
	badFlags := make([]string, 0, 3)
	if *f.Token == "" {
		badFlags = append(badFlags, "token")
	}
	if *f.PR == 0 {
		badFlags = append(badFlags, "pr")
	}
	if *f.Repo == "" {
		badFlags = append(badFlags, "repo")
	}
	if len(badFlags) > 0 {
		return fmt.Errorf("required flags or environment variables not set: %s", strings.Join(badFlags, ", "))
	}
	return nil
}

// shouldFail should always be true for errors that are not recoverable
func errorAndExit(shouldFail bool, format string, args ...interface{}) {
	_, err := WarningBuffer.WriteTo(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing warning buffer: %v\n", err)
	}
	if *flags.Verbose {
		_, err := InfoBuffer.WriteTo(os.Stderr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing info buffer: %v\n", err)
		}
	}
	fmt.Fprintf(os.Stderr, format, args...)
	if shouldFail {
		os.Exit(1)
	} else {
		os.Exit(0)
	}
}

func main() {
	flags = &Flags{
		Token:   flag.String("token", getEnv("INPUT_GITHUB-TOKEN", ""), "GitHub authentication token"),
		RepoDir: flag.String("dir", getEnv("GITHUB_WORKSPACE", "/"), "Path to local Git repo"),
		PR:      flag.Int("pr", ignoreError(strconv.Atoi(getEnv("INPUT_PR", ""))), "Pull Request number"),
		Repo:    flag.String("repo", getEnv("INPUT_REPOSITORY", ""), "GitHub repo name"),
		Verbose: flag.Bool("v", ignoreError(strconv.ParseBool(getEnv("INPUT_VERBOSE", "0"))), "Verbose output"),
	}
	flag.Parse()
	if err := initFlags(flags); err != nil {
		errorAndExit(true, "%v\n", err)
	}

	application, err := app.New(app.Config{
		Token:         *flags.Token,
		RepoDir:       *flags.RepoDir,
		PR:            *flags.PR,
		Repo:          *flags.Repo,
		Verbose:       *flags.Verbose,
		AddComments:   true,
		InfoBuffer:    InfoBuffer,
		WarningBuffer: WarningBuffer,
	})
	if err != nil {
		errorAndExit(true, "%v\n", err)
	}

	outputData, err := application.Run()
	if err != nil {
		errorAndExit(true, "%v\n", err)
	}

	for _, diagnostic := range outputData.Diagnostics {
		fmt.Println(diagnostic)
	}

	if !outputData.Success {
		errorAndExit(
			application.Conf.Enforcement.FailCheck,
			"FAIL: %s\n",
			outputData.Message,
		)
	}

	_, err = WarningBuffer.WriteTo(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing warning buffer: %v\n", err)
	}
	if *flags.Verbose {
		_, err = InfoBuffer.WriteTo(os.Stdout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing info buffer: %v\n", err)
		}
	}
	fmt.Println(outputData.Message)
}
