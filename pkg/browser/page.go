package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"

	"github.com/linuxdo-automation/pkg/logger"
	rodstealth "github.com/linuxdo-automation/pkg/stealth"
)

const (
	scrollScript = `(delta) => window.scrollBy(0, delta)`
	bottomScript = `() => window.scrollY + window.innerHeight >= document.body.scrollHeight`
)

// Page is one tab of a session.
type Page struct {
	page           *rod.Page
	log            *logger.Logger
	scroll         *rodstealth.ScrollController
	typing         *rodstealth.TypingController
	mouse          *rodstealth.MouseController
	elementTimeout time.Duration
}

func (p *Page) waitElement(ctx context.Context, selector string) (*rod.Element, error) {
	page := p.page.Context(ctx)
	if p.elementTimeout > 0 {
		page = page.Timeout(p.elementTimeout)
	}

	el, err := page.Element(selector)
	if err != nil {
		return nil, fmt.Errorf("element not found: %s: %w", selector, err)
	}
	return el, nil
}

func (p *Page) Click(ctx context.Context, selector string) error {
	el, err := p.waitElement(ctx, selector)
	if err != nil {
		return err
	}

	if err := p.moveTo(ctx, el); err != nil {
		p.log.Debug("Cursor path to %s skipped: %v", selector, err)
	}

	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed on %s: %w", selector, err)
	}

	p.log.Debug("Clicked element: %s", selector)
	return nil
}

// moveTo walks the cursor to the centre of el along a planned path. It is a
// no-op unless mouse movement is enabled.
func (p *Page) moveTo(ctx context.Context, el *rod.Element) error {
	if !p.mouse.Enabled() {
		return nil
	}

	if err := el.ScrollIntoView(); err != nil {
		return err
	}
	shape, err := el.Shape()
	if err != nil {
		return err
	}
	box := shape.Box()
	if box == nil {
		return fmt.Errorf("element has no box")
	}

	pos := p.page.Mouse.Position()
	path := p.mouse.Path(
		rodstealth.Point{X: pos.X, Y: pos.Y},
		rodstealth.Point{X: box.X + box.Width/2, Y: box.Y + box.Height/2},
	)
	step := p.mouse.Duration(path) / time.Duration(len(path))

	for _, pt := range path[1:] {
		if err := p.page.Mouse.MoveTo(proto.Point{X: pt.X, Y: pt.Y}); err != nil {
			return err
		}
		if step <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(step):
		}
	}
	return nil
}

// Fill replaces the value of an input. With human typing enabled the text
// is typed key by key instead of inserted at once.
func (p *Page) Fill(ctx context.Context, selector, text string) error {
	el, err := p.waitElement(ctx, selector)
	if err != nil {
		return err
	}
	el = el.Context(ctx)

	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("failed to focus %s: %w", selector, err)
	}

	if p.typing == nil || !p.typing.Enabled() {
		if err := el.Input(text); err != nil {
			return fmt.Errorf("failed to fill %s: %w", selector, err)
		}
		return nil
	}

	typeFn := func(char rune) error {
		return el.Input(string(char))
	}
	backspaceFn := func() error {
		return el.Type(input.Backspace)
	}

	if err := p.typing.ExecuteTyping(ctx, typeFn, backspaceFn, text); err != nil {
		return fmt.Errorf("typing failed on %s: %w", selector, err)
	}
	return nil
}

// Exists checks for selector without waiting.
func (p *Page) Exists(selector string) bool {
	has, _, err := p.page.Has(selector)
	return err == nil && has
}

// Attributes returns the attribute value of every element matching selector.
// Elements without the attribute are skipped.
func (p *Page) Attributes(selector, name string) ([]string, error) {
	elements, err := p.page.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to find elements %s: %w", selector, err)
	}

	values := make([]string, 0, len(elements))
	for _, el := range elements {
		v, err := el.Attribute(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s of %s: %w", name, selector, err)
		}
		if v != nil {
			values = append(values, *v)
		}
	}
	return values, nil
}

// ClickFirst clicks the first element matching selector if there is one.
func (p *Page) ClickFirst(ctx context.Context, selector string) (bool, error) {
	has, el, err := p.page.Has(selector)
	if err != nil {
		return false, fmt.Errorf("failed to query %s: %w", selector, err)
	}
	if !has {
		return false, nil
	}

	if err := p.moveTo(ctx, el); err != nil {
		p.log.Debug("Cursor path to %s skipped: %v", selector, err)
	}
	if err := el.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return true, fmt.Errorf("click failed on %s: %w", selector, err)
	}
	return true, nil
}

func (p *Page) ScrollBy(ctx context.Context, delta int) error {
	scrollFn := func(d int) error {
		_, err := p.page.Context(ctx).Eval(scrollScript, d)
		return err
	}

	var err error
	if p.scroll != nil {
		err = p.scroll.Execute(ctx, scrollFn, delta)
	} else {
		err = scrollFn(delta)
	}
	if err != nil {
		return fmt.Errorf("scroll failed: %w", err)
	}
	return nil
}

func (p *Page) AtBottom() (bool, error) {
	res, err := p.page.Eval(bottomScript)
	if err != nil {
		return false, fmt.Errorf("failed to read scroll position: %w", err)
	}
	return res.Value.Bool(), nil
}

func (p *Page) URL() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// TableRows returns the trimmed text of the cells of every row.
func (p *Page) TableRows(rowSelector, cellSelector string) ([][]string, error) {
	rows, err := p.page.Elements(rowSelector)
	if err != nil {
		return nil, fmt.Errorf("failed to find rows %s: %w", rowSelector, err)
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells, err := row.Elements(cellSelector)
		if err != nil {
			return nil, fmt.Errorf("failed to find cells %s: %w", cellSelector, err)
		}

		texts := make([]string, 0, len(cells))
		for _, cell := range cells {
			text, err := cell.Text()
			if err != nil {
				return nil, fmt.Errorf("failed to read cell text: %w", err)
			}
			texts = append(texts, strings.TrimSpace(text))
		}
		out = append(out, texts)
	}
	return out, nil
}

func (p *Page) Close() error {
	return p.page.Close()
}
