// internal/app/resources/resources.go
package resources

import (
	"embed"
	"sync"

	"github.com/dalemusser/waffle/pantry/templates"
)

// FS holds the layout partials every page template includes:
// layout_head, layout_nav and layout_foot.
//
//go:embed templates/*.gohtml
var FS embed.FS

var registerOnce sync.Once

// LoadSharedTemplates registers the layout set. Safe to call more than once;
// bootstrap calls it before booting the template engine.
func LoadSharedTemplates() {
	registerOnce.Do(func() {
		templates.Register(templates.Set{
			Name:     "layout",
			FS:       FS,
			Patterns: []string{"templates/*.gohtml"},
		})
	})
}
