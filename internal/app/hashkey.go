package app

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"horse.fit/storydesk/internal/auth"
)

func runHashAdminKey(args []string) int {
	fs := flag.NewFlagSet("hash-admin-key", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	key := fs.String("key", "", "Admin key to hash; read from stdin when empty")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	value := strings.TrimSpace(*key)
	if value == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "--key or a key on stdin is required")
			return 2
		}
		value = strings.TrimSpace(line)
	}

	hash, err := auth.HashAdminKey(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Hash failed: %v\n", err)
		return 1
	}

	fmt.Println(hash)
	return 0
}
