package dashboard

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/qepting91/reddit-archiver/internal/domain"
	"github.com/qepting91/reddit-archiver/internal/storage"
)

// NewServer builds the routes over the archive at dataFile. The file is
// re-read on every request so a running scrape shows up after it is saved.
func NewServer(dataFile string, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("Dashboard request", "method", c.Request.Method, "path", c.Request.URL.Path,
			"status", c.Writer.Status(), "latency", time.Since(start))
	})

	r.GET("/", func(c *gin.Context) {
		posts, err := loadData(dataFile)
		if err != nil {
			logger.Error("Dashboard failed to read archive", "file", dataFile, "err", err)
			c.String(http.StatusInternalServerError, "cannot read archive")
			return
		}
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.Status(http.StatusOK)
		if err := Render(c.Writer, posts); err != nil {
			logger.Error("Dashboard render failed", "err", err)
		}
	})

	r.GET("/api/posts", func(c *gin.Context) {
		posts, err := loadData(dataFile)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(posts), "posts": posts})
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

// StartServer serves the dashboard until ctx is done.
func StartServer(ctx context.Context, dataFile, port string, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           NewServer(dataFile, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Render writes the charts for posts as HTML.
func Render(w io.Writer, posts []domain.PostRecord) error {
	days, perDay, upvotesPerDay := dailyTotals(posts)

	// 1. Posting volume
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Posts per Day"}),
		charts.WithThemeOpts(opts.Theme{Theme: types.ThemeWesteros}),
	)
	var barY []opts.BarData
	for _, d := range days {
		barY = append(barY, opts.BarData{Value: perDay[d]})
	}
	bar.SetXAxis(days).AddSeries("Posts", barY)

	// 2. Engagement over time
	line := charts.NewLine()
	line.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Upvotes per Day"}))
	var lineY []opts.LineData
	for _, d := range days {
		lineY = append(lineY, opts.LineData{Value: upvotesPerDay[d]})
	}
	line.SetXAxis(days).AddSeries("Upvotes", lineY)

	// 3. Score distribution
	pie := charts.NewPie()
	pie.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Upvote Bands"}))
	var pieItems []opts.PieData
	for _, b := range upvoteBands(posts) {
		pieItems = append(pieItems, opts.PieData{Name: b.name, Value: b.count})
	}
	pie.AddSeries("Posts", pieItems)

	if err := bar.Render(w); err != nil {
		return err
	}
	if err := line.Render(w); err != nil {
		return err
	}
	return pie.Render(w)
}

// dailyTotals returns the posting days in ascending order with post and upvote totals.
func dailyTotals(posts []domain.PostRecord) ([]string, map[string]int, map[string]int) {
	perDay := make(map[string]int)
	upvotes := make(map[string]int)
	for _, p := range posts {
		d := p.Date()
		perDay[d]++
		upvotes[d] += p.Upvotes
	}
	days := make([]string, 0, len(perDay))
	for d := range perDay {
		days = append(days, d)
	}
	sort.Strings(days)
	return days, perDay, upvotes
}

type band struct {
	name  string
	count int
}

func upvoteBands(posts []domain.PostRecord) []band {
	bands := []band{{name: "0"}, {name: "1-9"}, {name: "10-99"}, {name: "100+"}}
	for _, p := range posts {
		switch {
		case p.Upvotes == 0:
			bands[0].count++
		case p.Upvotes < 10:
			bands[1].count++
		case p.Upvotes < 100:
			bands[2].count++
		default:
			bands[3].count++
		}
	}
	return bands
}

// loadData treats a missing archive as empty.
func loadData(path string) ([]domain.PostRecord, error) {
	posts, err := storage.ReadAll(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return posts, err
}
