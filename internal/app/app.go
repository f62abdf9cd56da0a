package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "serve":
		return runServe(args[1:])
	case "aggregate":
		return runAggregate(args[1:])
	case "cluster":
		return runCluster(args[1:])
	case "validate":
		return runValidate(args[1:])
	case "hash-admin-key":
		return runHashAdminKey(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "storydesk CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  storydesk <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  serve           Start Echo API server")
	fmt.Fprintln(os.Stderr, "  aggregate       Fetch, group and summarize one page of stories")
	fmt.Fprintln(os.Stderr, "  cluster         Group articles from a JSON file")
	fmt.Fprintln(os.Stderr, "  validate        Validate article JSON files against the cluster schema")
	fmt.Fprintln(os.Stderr, "  hash-admin-key  Print a bcrypt hash for ADMIN_KEY_HASH")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"storydesk <command> -h\" for command-specific flags.")
}
