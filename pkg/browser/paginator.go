package browser

import (
	"context"
	"time"

	"breedscraper/pkg/config"
	"breedscraper/pkg/logger"
)

// Paginator drives infinite-scroll result pages
type Paginator struct {
	ThumbnailSel  string
	ShowMoreSel   string
	MaxScrolls    int
	ScrollPause   time.Duration
	ShowMorePause time.Duration
	logger        logger.Logger
}

// NewPaginator creates a paginator from the search configuration
func NewPaginator(cfg config.SearchConfig, log logger.Logger) *Paginator {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Paginator{
		ThumbnailSel:  cfg.ThumbnailSel,
		ShowMoreSel:   cfg.ShowMoreSel,
		MaxScrolls:    cfg.MaxScrolls,
		ScrollPause:   cfg.ScrollPause,
		ShowMorePause: cfg.ShowMorePause,
		logger:        log.WithField("component", "paginator"),
	}
}

// LoadThumbnails scrolls and clicks "show more" until at least min
// thumbnails are on the page or MaxScrolls is spent, and returns the
// last count it saw. A missing "show more" control is not an error.
func (p *Paginator) LoadThumbnails(ctx context.Context, s Session, min int) int {
	count := 0
	for scroll := 1; count < min && scroll <= p.MaxScrolls; scroll++ {
		if err := s.ScrollToBottom(ctx); err != nil {
			p.logger.DebugWithFields("scroll failed", map[string]interface{}{"error": err.Error()})
		}
		if sleep(ctx, p.ScrollPause) != nil {
			break
		}

		if s.TryClick(ctx, p.ShowMoreSel) {
			p.logger.Debug("clicked show more results")
			if sleep(ctx, p.ShowMorePause) != nil {
				break
			}
		}

		n, err := s.Count(ctx, p.ThumbnailSel)
		if err != nil {
			p.logger.DebugWithFields("thumbnail count failed", map[string]interface{}{"error": err.Error()})
			n = 0
		}
		count = n

		p.logger.DebugWithFields("thumbnails loaded", map[string]interface{}{
			"count":  count,
			"scroll": scroll,
		})
	}
	return count
}
