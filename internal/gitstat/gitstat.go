// Package gitstat gathers auxiliary change statistics from version control
// after an agent run. Stats are best-effort telemetry: a project without git
// simply gets none.
package gitstat

import (
	"bufio"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Stats summarizes the working-tree changes since a baseline commit.
type Stats struct {
	FilesChanged int
	LinesAdded   int
	LinesRemoved int
}

// Head returns the current HEAD commit of the repository at dir.
func Head(dir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w (output: %s)", err, strings.TrimSpace(string(output)))
	}
	return strings.TrimSpace(string(output)), nil
}

// Diff computes change stats between the baseline commit and the current
// working tree (staged and unstaged) via `git diff --numstat`.
func Diff(dir, baseline string) (Stats, error) {
	cmd := exec.Command("git", "diff", "--numstat", baseline)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to diff against %s: %w", baseline, err)
	}
	return parseNumstat(string(output)), nil
}

// parseNumstat sums a `git diff --numstat` listing. Binary files report "-"
// counts and contribute only to the file count.
func parseNumstat(out string) Stats {
	var stats Stats
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		stats.FilesChanged++
		if added, err := strconv.Atoi(fields[0]); err == nil {
			stats.LinesAdded += added
		}
		if removed, err := strconv.Atoi(fields[1]); err == nil {
			stats.LinesRemoved += removed
		}
	}
	return stats
}
