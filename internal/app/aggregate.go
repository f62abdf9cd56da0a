package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"horse.fit/storydesk/internal/aggregate"
	"horse.fit/storydesk/internal/cli"
)

func runAggregate(args []string) int {
	fs := flag.NewFlagSet("aggregate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	category := fs.String("category", "", "Category (business, technology, sports, ...)")
	country := fs.String("country", "", "ISO country code for relevance filtering")
	keywords := fs.String("q", "", "Keyword query")
	page := fs.Int("page", 1, "Page number")
	pageSize := fs.Int("page-size", aggregate.DefaultPageSize, "Stories per page")
	threshold := fs.Float64("threshold", 0, "Similarity threshold in (0,1]; 0 uses SIMILARITY_THRESHOLD")
	timeout := fs.Duration("timeout", 2*time.Minute, "Overall timeout")
	asJSON := fs.Bool("json", false, "Print JSON instead of a table")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *page < 1 {
		fmt.Fprintln(os.Stderr, "--page must be >= 1")
		return 2
	}
	if *pageSize < 1 || *pageSize > aggregate.MaxPageSize {
		fmt.Fprintf(os.Stderr, "--page-size must be between 1 and %d\n", aggregate.MaxPageSize)
		return 2
	}
	if *threshold < 0 || *threshold > 1 {
		fmt.Fprintln(os.Stderr, "--threshold must be in (0,1]")
		return 2
	}

	cfg, logger, err := loadConfig(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Aggregate failed: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rt, err := newRuntime(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Aggregate failed: %v\n", err)
		return 1
	}
	defer rt.Close()

	req := aggregate.Request{
		Category:  *category,
		Country:   *country,
		Keywords:  *keywords,
		Page:      *page,
		PageSize:  *pageSize,
		Threshold: *threshold,
	}
	if req.Threshold == 0 {
		req.Threshold = rt.stories.Threshold()
	}

	result, err := rt.stories.Run(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("aggregate failed")
		fmt.Fprintf(os.Stderr, "Aggregate failed: %v\n", err)
		return 1
	}

	if *asJSON {
		if err := writeJSON(os.Stdout, result); err != nil {
			fmt.Fprintf(os.Stderr, "Write output failed: %v\n", err)
			return 1
		}
		return 0
	}

	printStories(os.Stdout, result)
	return 0
}

func printStories(w io.Writer, result *aggregate.Result) {
	rows := [][]string{{"#", "SOURCES", "LATEST", "TITLE"}}
	offset := (result.Pagination.Page - 1) * result.Pagination.PageSize
	for i, story := range result.Items {
		latest := ""
		if story.LatestPublishedAt != nil {
			latest = story.LatestPublishedAt.UTC().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			strconv.Itoa(offset + i + 1),
			strings.Join(story.Sources, ","),
			latest,
			truncateForTable(story.GroupTitle, 72),
		})
	}
	writeTable(w, rows)

	fmt.Fprintf(w, "\npage %d/%d, %d stories", result.Pagination.Page, result.Pagination.TotalPages, result.Pagination.TotalItems)
	if result.Cached {
		fmt.Fprint(w, " (cached)")
	}
	fmt.Fprintln(w)

	for _, status := range result.Providers {
		line := fmt.Sprintf("  %s fetched=%d used=%d in %s", status.Name, status.Fetched, status.Used, status.Duration)
		if status.Error != "" {
			line += " error=" + status.Error
		}
		fmt.Fprintln(w, line)
	}
}
