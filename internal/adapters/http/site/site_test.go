package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func get(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestSiteHandler(t *testing.T) {
	Convey("Given a registered console", t, func() {
		mux := http.NewServeMux()
		Register(context.Background(), mux)

		Convey("Then the root serves the console page", func() {
			w := get(mux, "/")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
			So(w.Body.String(), ShouldContainSubstring, "TelcoGuard console")
		})

		Convey("And the console assets are served", func() {
			w := get(mux, "/console/console.js")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "/v1/predictions")

			So(get(mux, "/console/console.css").Code, ShouldEqual, http.StatusOK)
		})

		Convey("And unknown paths are not found", func() {
			So(get(mux, "/some-asset").Code, ShouldEqual, http.StatusNotFound)
			So(get(mux, "/console/missing.js").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestSiteErrors(t *testing.T) {
	Convey("Given site error constants", t, func() {
		So(ErrServe, ShouldNotBeNil)
		So(ErrServe.Error(), ShouldEqual, "console serve failed")
	})
}

func TestSiteHandlerWithNilMux(t *testing.T) {
	Convey("Given a nil mux", t, func() {
		So(func() {
			Register(context.Background(), nil)
		}, ShouldPanic)
	})
}
