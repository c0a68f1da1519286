package watcher

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Comment is one extracted source comment.
type Comment struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// ScanMetadata summarizes one scan pass.
type ScanMetadata struct {
	StopWordFound bool   `json:"stopWordFound"`
	StopWordFile  string `json:"stopWordFile,omitempty"`
	FilesScanned  int    `json:"filesScanned"`
	Timestamp     string `json:"timestamp"`
}

// ScanResult is the contract with the comment-extraction engine.
type ScanResult struct {
	Comments []Comment    `json:"comments"`
	Metadata ScanMetadata `json:"metadata"`
}

// Scanner extracts comments containing the stop word from a set of files or
// directories. Implementations may shell out to an external engine; the
// built-in RegexScanner covers the common line-comment styles.
type Scanner interface {
	Scan(paths []string, stopWord string) (*ScanResult, error)
}

// RegexScanner is the built-in comment scanner. It walks the given paths and
// collects line comments (//, #, --) whose text contains the stop word.
type RegexScanner struct{}

var commentPattern = regexp.MustCompile(`(?://|#|--)\s*(.+)$`)

// skipDirs are directory names never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	".loom":        true,
	"vendor":       true,
}

// Scan walks each path (files or directory trees) and returns the comments
// containing stopWord plus scan metadata. Unreadable files are skipped, not
// errors; a missing path is.
func (s *RegexScanner) Scan(paths []string, stopWord string) (*ScanResult, error) {
	result := &ScanResult{
		Comments: []Comment{},
		Metadata: ScanMetadata{Timestamp: time.Now().Format(time.RFC3339)},
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}

		if !info.IsDir() {
			s.scanFile(root, stopWord, result)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // Unreadable entries are skipped
			}
			if d.IsDir() {
				if skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			s.scanFile(path, stopWord, result)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}

	return result, nil
}

// scanFile extracts matching comments from a single file.
func (s *RegexScanner) scanFile(path, stopWord string, result *ScanResult) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	result.Metadata.FilesScanned++

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if !strings.Contains(line, stopWord) {
			continue
		}
		m := commentPattern.FindStringSubmatch(line)
		if m == nil || !strings.Contains(m[1], stopWord) {
			continue
		}
		result.Comments = append(result.Comments, Comment{
			File: path,
			Line: lineNo,
			Text: strings.TrimSpace(m[1]),
		})
		if !result.Metadata.StopWordFound {
			result.Metadata.StopWordFound = true
			result.Metadata.StopWordFile = path
		}
	}
}
