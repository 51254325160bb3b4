package project

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vrewgen/internal/model/project"
	"vrewgen/internal/pkg/ctxutil"
	httputil "vrewgen/internal/pkg/http"
	"vrewgen/internal/pkg/mediabind"
	"vrewgen/internal/pkg/scripttools"
	"vrewgen/internal/pkg/sheet"
	projectService "vrewgen/internal/service/project"
)

// ErrorResponse shared error envelope
type ErrorResponse = httputil.ErrorResponse

// SessionInfo session DTO
type SessionInfo struct {
	ID          string                  `json:"id"`
	ScriptName  string                  `json:"script_name"`
	SheetName   string                  `json:"sheet_name"`
	Status      string                  `json:"status"`
	Summary     scripttools.Summary     `json:"summary"`
	Scenes      []scripttools.Scene     `json:"scenes,omitempty"`
	Clips       []scripttools.Clip      `json:"clips,omitempty"`
	Unresolved  []string                `json:"unresolved,omitempty"`
	Media       []mediabind.Binding     `json:"media,omitempty"`
	Missing     []mediabind.MissingSlot `json:"missing,omitempty"`
	Generations []project.Generation    `json:"generations,omitempty"`
	CreatedAt   string                  `json:"created_at"`
	UpdatedAt   string                  `json:"updated_at"`
}

// toSessionInfo converts a session. Detail adds scenes, clips and media.
func toSessionInfo(s *project.Session, detail bool) SessionInfo {
	info := SessionInfo{
		ID:          s.ID,
		ScriptName:  s.ScriptName,
		SheetName:   s.SheetName,
		Status:      string(s.Status),
		Summary:     scripttools.Summarize(s.Scenes, s.Clips),
		Unresolved:  s.Unresolved,
		Generations: s.Generations,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   s.UpdatedAt.Format(time.RFC3339),
	}
	if detail {
		info.Scenes = s.Scenes
		info.Clips = s.Clips
		info.Media = s.Media.Bindings
		info.Missing = s.Media.Missing()
	}
	return info
}

// respondError maps service errors to status codes and envelope codes.
func respondError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, 50001

	var batch *projectService.BatchError
	switch {
	case errors.Is(err, projectService.ErrSessionNotFound):
		status, code = http.StatusNotFound, 40401
	case errors.Is(err, projectService.ErrOutputNotFound):
		status, code = http.StatusNotFound, 40402
	case errors.Is(err, mediabind.ErrUnknownScene):
		status, code = http.StatusNotFound, 40403
	case errors.Is(err, projectService.ErrNoScenes):
		status, code = http.StatusUnprocessableEntity, 42201
	case errors.Is(err, mediabind.ErrSlotEmpty):
		status, code = http.StatusConflict, 40901
	case errors.Is(err, sheet.ErrUnsupportedFormat), errors.Is(err, sheet.ErrEmpty):
		status, code = http.StatusBadRequest, 40011
	case errors.Is(err, projectService.ErrInvalidInput),
		errors.Is(err, projectService.ErrInvalidSplit),
		errors.Is(err, mediabind.ErrInvalidSlot):
		status, code = http.StatusBadRequest, 40010
	case errors.As(err, &batch):
		code = 50002
	}

	if status >= http.StatusInternalServerError {
		ctxutil.Logger(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, ErrorResponse{
		Code:    code,
		Message: http.StatusText(status),
		Detail:  err.Error(),
	})
}

func badRequest(c *gin.Context, code int, message string, err error) {
	resp := ErrorResponse{Code: code, Message: message}
	if err != nil {
		resp.Detail = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}
