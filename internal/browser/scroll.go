package browser

import (
	"context"
	"fmt"
	"time"
)

// ScrollHeightScript reads the current height of the document body.
const ScrollHeightScript = "document.body.scrollHeight"

// Default progressive scroll parameters.
const (
	DefaultScrollStep     = 100
	DefaultScrollInterval = 150 * time.Millisecond
)

// ScrollByScript returns the script that moves the viewport down by px pixels.
func ScrollByScript(px int) string {
	return fmt.Sprintf("window.scrollBy(0, %d)", px)
}

// Scroller scrolls a page to the bottom in fixed steps so that lazily
// loaded content has time to render.
type Scroller struct {
	// Step is the distance of one scroll in pixels.
	Step int

	// Interval is the pause between two steps.
	Interval time.Duration
}

// NewScroller returns a scroller with the default step and interval.
func NewScroller() *Scroller {
	return &Scroller{Step: DefaultScrollStep, Interval: DefaultScrollInterval}
}

// ScrollToBottom scrolls until the distance covered reaches the document
// height. The height is read again before every step because it grows while
// content loads, so the loop ends only once the page stops growing.
func (s *Scroller) ScrollToBottom(ctx context.Context, page Page) error {
	step := s.Step
	if step <= 0 {
		step = DefaultScrollStep
	}

	covered := 0
	for {
		var height int
		if err := page.Evaluate(ctx, ScrollHeightScript, &height); err != nil {
			return err
		}
		if covered >= height {
			return nil
		}
		if err := page.Evaluate(ctx, ScrollByScript(step), nil); err != nil {
			return err
		}
		covered += step

		if s.Interval > 0 {
			timer := time.NewTimer(s.Interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
	}
}
