package branding

import (
	"fmt"
	"html"

	"github.com/megaglest/masterserver/internal/config"
)

// Product carries the product name and homepage shown to players.
type Product struct {
	Name string
	URL  string
}

func New(name, url string) Product {
	return Product{Name: name, URL: url}
}

func FromConfig(cfg config.Config) Product {
	return New(cfg.ProductName, cfg.ProductURL)
}

// Title returns a page title such as "Servers - MegaGlest masterserver".
func (p Product) Title(page string) string {
	if page == "" {
		return p.Name + " masterserver"
	}
	return fmt.Sprintf("%s - %s masterserver", page, p.Name)
}

// Signature is the one-line banner logged at startup.
func (p Product) Signature() string {
	return fmt.Sprintf("%s masterserver (%s)", p.Name, p.URL)
}

// Link returns an HTML anchor to the product homepage.
func (p Product) Link() string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(p.URL), html.EscapeString(p.Name))
}
