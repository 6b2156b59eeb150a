package forum

import (
	"context"

	"github.com/linuxdo-automation/pkg/browser"
)

// Engine opens pages inside one browsing context and releases the whole
// context on Close.
type Engine interface {
	Open(ctx context.Context, url string) (Page, error)
	Close() error
}

// Page is the slice of a browser tab the session drives.
type Page interface {
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, text string) error
	Exists(selector string) bool
	Attributes(selector, name string) ([]string, error)
	ClickFirst(ctx context.Context, selector string) (bool, error)
	ScrollBy(ctx context.Context, delta int) error
	AtBottom() (bool, error)
	URL() string
	TableRows(rowSelector, cellSelector string) ([][]string, error)
	Close() error
}

type rodEngine struct {
	*browser.Browser
}

// NewEngine adapts a launched browser to Engine.
func NewEngine(b *browser.Browser) Engine {
	return rodEngine{Browser: b}
}

func (e rodEngine) Open(ctx context.Context, url string) (Page, error) {
	p, err := e.NewPage(ctx, url)
	if err != nil {
		return nil, err
	}
	return p, nil
}
