package viewdata_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/retroboard/internal/app/system/auth"
	"github.com/dalemusser/retroboard/internal/app/system/viewdata"
)

func TestNewBaseVM_Anonymous(t *testing.T) {
	req := httptest.NewRequest("GET", "/rooms/abc", nil)

	vm := viewdata.NewBaseVM(req, "Board", "/")

	if vm.IsLoggedIn {
		t.Error("expected anonymous view model")
	}
	if vm.SiteName != viewdata.DefaultSiteName {
		t.Errorf("SiteName: got %q", vm.SiteName)
	}
	if vm.Title != "Board" {
		t.Errorf("Title: got %q", vm.Title)
	}
	if vm.CSRFToken != "" {
		t.Errorf("expected no csrf token without middleware, got %q", vm.CSRFToken)
	}
}

func TestNewBaseVM_SignedIn(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "u1", Name: "Olivia", Image: "https://example.com/o.png"})

	vm := viewdata.NewBaseVM(req, "Home", "/")

	if !vm.IsLoggedIn || vm.UserID != "u1" || vm.UserName != "Olivia" {
		t.Errorf("unexpected user fields: %+v", vm)
	}
	if vm.UserImage == "" {
		t.Error("expected user image")
	}
}
