package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/smartystreets/goconvey/convey"
)

func serve(h *HealthHandler, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	e.GET("/health", h.Health)
	e.GET("/ready", h.Ready)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("down") }

	Convey("Health always answers ok", t, func() {
		w := serve(NewHealthHandler(map[string]Check{"db": down}, nil), "/health")
		So(w.Code, ShouldEqual, http.StatusOK)
	})

	Convey("Ready", t, func() {
		Convey("is ready when required checks pass", func() {
			w := serve(NewHealthHandler(map[string]Check{"db": ok}, map[string]Check{"ffprobe": down}), "/ready")
			So(w.Code, ShouldEqual, http.StatusOK)

			var body struct {
				Status string        `json:"status"`
				Checks []CheckResult `json:"checks"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body.Status, ShouldEqual, "ready")
			So(body.Checks, ShouldHaveLength, 2)
			So(body.Checks[1].Name, ShouldEqual, "ffprobe")
			So(body.Checks[1].OK, ShouldBeFalse)
			So(body.Checks[1].Error, ShouldEqual, "down")
		})

		Convey("is unavailable when a required check fails", func() {
			w := serve(NewHealthHandler(map[string]Check{"db": down, "cache": ok}, nil), "/ready")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(w.Body.String(), ShouldContainSubstring, "not ready")
		})
	})
}
