package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/smartystreets/goconvey/convey"

	"vrewgen/internal/pkg/id"
)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	e.Use(Recovery(), RequestID(), Logger(), CORS())
	e.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })
	e.GET("/panic", func(c *gin.Context) { panic("boom") })
	return e
}

func TestMiddleware(t *testing.T) {
	Convey("Given the middleware chain", t, func() {
		e := newEngine()

		Convey("a request id is assigned", func() {
			w := httptest.NewRecorder()
			e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
			So(w.Code, ShouldEqual, http.StatusOK)
			So(id.IsValid(w.Header().Get(RequestIDHeader)), ShouldBeTrue)
			So(w.Body.String(), ShouldEqual, w.Header().Get(RequestIDHeader))
		})

		Convey("a valid incoming request id is kept", func() {
			rid := id.New()
			req := httptest.NewRequest(http.MethodGet, "/ok", nil)
			req.Header.Set(RequestIDHeader, rid)
			w := httptest.NewRecorder()
			e.ServeHTTP(w, req)
			So(w.Header().Get(RequestIDHeader), ShouldEqual, rid)
		})

		Convey("preflight requests end early", func() {
			w := httptest.NewRecorder()
			e.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/ok", nil))
			So(w.Code, ShouldEqual, http.StatusNoContent)
			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
		})

		Convey("panics become 500", func() {
			w := httptest.NewRecorder()
			e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldContainSubstring, "50000")
		})
	})
}
