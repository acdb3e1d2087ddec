// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"html/template"
	"net/http"

	"github.com/dalemusser/retroboard/internal/app/system/auth"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// DefaultSiteName is shown in the header and page titles.
const DefaultSiteName = "RetroBoard"

var siteName = DefaultSiteName

// SetSiteName overrides the site name. Call once at startup.
func SetSiteName(name string) {
	if name != "" {
		siteName = name
	}
}

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(r, "Page Title", "/"),
//	}
type BaseVM struct {
	SiteName string

	// User context (from auth middleware)
	IsLoggedIn bool
	UserID     string
	UserName   string
	UserImage  string

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// CSRF protection. Both are empty when the csrf middleware is not
	// installed (handler tests).
	CSRFToken string
	CSRFField template.HTML
}

// NewBaseVM creates a fully populated BaseVM for a page.
func NewBaseVM(r *http.Request, title, backDefault string) BaseVM {
	vm := BaseVM{
		SiteName:    siteName,
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
		CSRFField:   csrf.TemplateField(r),
	}

	if u, ok := auth.CurrentUser(r); ok {
		vm.IsLoggedIn = true
		vm.UserID = u.ID
		vm.UserName = u.Name
		vm.UserImage = u.Image
	}
	return vm
}
