package storage

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/qepting91/reddit-archiver/internal/domain"
)

// ReadAll loads an archive written by WriterService.
func ReadAll(path string) ([]domain.PostRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses the archive format. Content may span several lines; the
// title line leads each block and the four counter/date lines close it.
// Content can itself contain a rule, so a piece that does not decode is
// joined with the next one before giving up.
func Decode(r io.Reader) ([]domain.PostRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	sep := "\n\n" + Rule + "\n\n"
	var (
		records []domain.PostRecord
		pending string
		lastErr error
	)
	for _, piece := range strings.Split(string(data), sep) {
		block := piece
		if pending != "" {
			block = pending + sep + piece
		}
		if strings.TrimSpace(block) == "" {
			continue
		}
		rec, err := decodeBlock(block)
		if err != nil {
			pending, lastErr = block, err
			continue
		}
		records = append(records, rec)
		pending = ""
	}
	if strings.TrimSpace(pending) != "" {
		return records, fmt.Errorf("record %d: %w", len(records)+1, lastErr)
	}
	return records, nil
}

func decodeBlock(block string) (domain.PostRecord, error) {
	lines := strings.Split(block, "\n")
	if len(lines) < 6 {
		return domain.PostRecord{}, fmt.Errorf("expected at least 6 lines, got %d", len(lines))
	}
	tail := lines[len(lines)-4:]

	title, err := field(lines[0], "Title")
	if err != nil {
		return domain.PostRecord{}, err
	}
	content, err := field(strings.Join(lines[1:len(lines)-4], "\n"), "Content")
	if err != nil {
		return domain.PostRecord{}, err
	}
	upvotes, err := intField(tail[0], "Upvotes")
	if err != nil {
		return domain.PostRecord{}, err
	}
	comments, err := intField(tail[1], "Comments")
	if err != nil {
		return domain.PostRecord{}, err
	}
	date, err := field(tail[2], "Date")
	if err != nil {
		return domain.PostRecord{}, err
	}
	clock, err := field(tail[3], "Time")
	if err != nil {
		return domain.PostRecord{}, err
	}
	posted, err := time.ParseInLocation("2006-01-02 15:04:05", date+" "+clock, time.UTC)
	if err != nil {
		return domain.PostRecord{}, err
	}

	return domain.PostRecord{
		Title:    title,
		Content:  content,
		Upvotes:  upvotes,
		Comments: comments,
		Posted:   posted,
	}, nil
}

func field(line, name string) (string, error) {
	prefix := name + ": "
	if !strings.HasPrefix(line, prefix) {
		return "", fmt.Errorf("expected %q line, got %q", name, line)
	}
	return strings.TrimPrefix(line, prefix), nil
}

func intField(line, name string) (int, error) {
	v, err := field(line, name)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(v)
}
