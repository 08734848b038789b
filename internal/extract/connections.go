package extract

import (
	"context"

	"github.com/nao1215/netspider/internal/browser"
	"github.com/nao1215/netspider/internal/frontier"
	"github.com/nao1215/netspider/internal/model"
)

// Connections lists the signed-in user's connections. It seeds an empty
// frontier.
type Connections struct {
	env Env
}

// NewConnections returns the connection list extractor.
func NewConnections(env Env) *Connections {
	return &Connections{env: env.withDefaults()}
}

// Name implements Extractor.
func (c *Connections) Name() string { return "connections" }

// Extract navigates to the connection list and reads every card.
func (c *Connections) Extract(ctx context.Context, page browser.Page, visited *frontier.Visited) (*model.Batch, error) {
	if err := page.Navigate(ctx, c.env.Routes.Connections()); err != nil {
		return nil, wrap(c.Name(), err)
	}
	links, err := page.Query(ctx, SelectorConnectionLink)
	if err != nil {
		return nil, wrap(c.Name(), err)
	}
	raw := c.env.profiles(c.Name(), links, SelectorConnectionName)
	return frontier.Filter(raw, visited), nil
}
