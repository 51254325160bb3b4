package project

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"vrewgen/internal/pkg/ctxutil"
	httputil "vrewgen/internal/pkg/http"
	"vrewgen/internal/pkg/storage"
	projectService "vrewgen/internal/service/project"
)

// GenerateRequest generation options
type GenerateRequest struct {
	SplitSize *int   `json:"split_size,omitempty"` // scenes per file, 0 = one file; default from config
	Voice     string `json:"voice,omitempty"`      // TTS speaker id
}

// GenerateResponseData generation result. Failures lists partitions that were not written.
type GenerateResponseData struct {
	Report   *projectService.GenerationReport `json:"report"`
	Failures []PartitionFailureInfo           `json:"failures,omitempty"`
}

// PartitionFailureInfo failed partition DTO
type PartitionFailureInfo struct {
	Partition projectService.Partition `json:"partition"`
	Error     string                   `json:"error"`
}

// Generate writes the session's project files
// @Summary      Generate project files
// @Description  Writes one project file per partition of split_size scenes. A partially failed batch returns 207 with the failures listed.
// @Tags         generation
// @Accept       json
// @Produce      json
// @Param        id       path      string           true   "session id"
// @Param        request  body      GenerateRequest  false  "generation options"
// @Success      200      {object}  httputil.SuccessResponse{data=GenerateResponseData}
// @Success      207      {object}  httputil.SuccessResponse{data=GenerateResponseData}
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /api/v1/sessions/{id}/generate [post]
func (h *Handler) Generate(c *gin.Context) {
	var req GenerateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			badRequest(c, 40008, "invalid request body", err)
			return
		}
	}

	report, err := h.projectService.Generate(c.Request.Context(), &projectService.GenerateRequest{
		SessionID: c.Param("id"),
		SplitSize: req.SplitSize,
		Voice:     req.Voice,
	})

	var batch *projectService.BatchError
	if err != nil && !(errors.As(err, &batch) && batch.Partial()) {
		respondError(c, err)
		return
	}

	data := GenerateResponseData{Report: report}
	status, message := http.StatusOK, "generated"
	if batch != nil {
		status, message = http.StatusMultiStatus, "partially generated"
		for _, f := range batch.Failures {
			data.Failures = append(data.Failures, PartitionFailureInfo{Partition: f.Partition, Error: f.Err.Error()})
		}
	}
	c.JSON(status, httputil.NewSuccessResponse(message, data))
}

// DownloadOutput streams a generated project file
// @Summary      Download a project file
// @Tags         generation
// @Produce      application/zip
// @Param        id    path      string  true  "session id"
// @Param        name  path      string  true  "file name from the generation report"
// @Success      200   {file}    binary
// @Failure      404   {object}  ErrorResponse
// @Router       /api/v1/sessions/{id}/outputs/{name} [get]
func (h *Handler) DownloadOutput(c *gin.Context) {
	name := c.Param("name")
	rc, err := h.projectService.OpenOutput(c.Request.Context(), c.Param("id"), name)
	if err != nil {
		respondError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", storage.ContentType(name))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename*=UTF-8''%s`, url.PathEscape(name)))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		ctxutil.Logger(c.Request.Context()).Warn().Err(err).Str("file", name).Msg("stream output failed")
	}
}
