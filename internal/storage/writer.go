package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/qepting91/reddit-archiver/internal/domain"
)

// DefaultOutputFile is used when no output path is configured.
const DefaultOutputFile = "reddit_posts.txt"

// Rule separates two records in the archive file.
var Rule = strings.Repeat("-", 80)

// WriterService persists records as fixed six-line blocks in listing order.
type WriterService struct {
	FilePath string
}

// WriteAll replaces the file with records. The file is written to a
// temporary sibling first so an interrupted write never truncates an older archive.
func (w *WriterService) WriteAll(records []domain.PostRecord) error {
	path := w.FilePath
	if path == "" {
		path = DefaultOutputFile
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Encode writes records in the archive format.
func Encode(out io.Writer, records []domain.PostRecord) error {
	bw := bufio.NewWriter(out)
	for _, rec := range records {
		fmt.Fprintf(bw, "Title: %s\n", rec.Title)
		fmt.Fprintf(bw, "Content: %s\n", rec.Content)
		fmt.Fprintf(bw, "Upvotes: %d\n", rec.Upvotes)
		fmt.Fprintf(bw, "Comments: %d\n", rec.Comments)
		fmt.Fprintf(bw, "Date: %s\n", rec.Date())
		fmt.Fprintf(bw, "Time: %s\n", rec.Time())
		fmt.Fprintf(bw, "\n%s\n\n", Rule)
	}
	return bw.Flush()
}
