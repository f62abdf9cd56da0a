package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"horse.fit/storydesk/internal/grouping"
	"horse.fit/storydesk/internal/news"
	"horse.fit/storydesk/internal/schema"
)

func runCluster(args []string) int {
	fs := flag.NewFlagSet("cluster", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	file := fs.String("file", "", "JSON file with {\"articles\": [...]} or a bare article array (- for stdin)")
	threshold := fs.Float64("threshold", 0, "Similarity threshold in (0,1]; 0 uses the file value or the default")
	asJSON := fs.Bool("json", false, "Print JSON instead of a table")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	path := strings.TrimSpace(*file)
	if path == "" {
		fmt.Fprintln(os.Stderr, "--file is required")
		return 2
	}
	if *threshold < 0 || *threshold > 1 {
		fmt.Fprintln(os.Stderr, "--threshold must be in (0,1]")
		return 2
	}

	raw, err := readInput(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cluster failed: %v\n", err)
		return 1
	}

	groups, used, err := clusterPayload(raw, *threshold)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cluster failed: %v\n", err)
		return 1
	}

	if *asJSON {
		if err := writeJSON(os.Stdout, map[string]any{
			"threshold": used,
			"total":     len(groups),
			"items":     groups,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Write output failed: %v\n", err)
			return 1
		}
		return 0
	}

	printGroups(os.Stdout, groups, used)
	return 0
}

// clusterPayload validates raw and groups its articles. A positive override
// wins over the threshold carried in the payload.
func clusterPayload(raw []byte, override float64) ([]grouping.ArticleGroup, float64, error) {
	req, err := schema.ValidateClusterRequest(raw)
	if err != nil {
		return nil, 0, err
	}

	threshold := grouping.DefaultSimilarityThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if override > 0 {
		threshold = override
	}

	return grouping.Group(news.FilterValid(req.Articles), threshold), threshold, nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return raw, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return raw, nil
}

func printGroups(w io.Writer, groups []grouping.ArticleGroup, threshold float64) {
	rows := [][]string{{"GROUP", "SOURCE", "PUBLISHED", "TITLE"}}
	for i, g := range groups {
		for j, a := range g.Articles {
			label := ""
			if j == 0 {
				label = strconv.Itoa(i + 1)
			}
			rows = append(rows, []string{
				label,
				a.Source,
				a.PublishedAt,
				truncateForTable(a.Title, 80),
			})
		}
	}
	writeTable(w, rows)

	multi := 0
	for _, g := range groups {
		if g.MultiSource() {
			multi++
		}
	}
	fmt.Fprintf(w, "\n%d groups, %d multi-source, threshold %.2f\n", len(groups), multi, threshold)
}
