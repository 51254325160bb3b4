package project

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	httputil "vrewgen/internal/pkg/http"
)

// GetSession returns a session with its scenes, clips and media slots
// @Summary      Get a session
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "session id"
// @Success      200  {object}  httputil.SuccessResponse{data=SessionInfo}
// @Failure      404  {object}  ErrorResponse
// @Router       /api/v1/sessions/{id} [get]
func (h *Handler) GetSession(c *gin.Context) {
	sess, err := h.projectService.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httputil.NewSuccessResponse("ok", toSessionInfo(sess, true)))
}

// ListSessions returns recently updated sessions
// @Summary      List sessions
// @Tags         sessions
// @Produce      json
// @Param        limit  query     int  false  "max sessions (default 20)"
// @Success      200    {object}  httputil.SuccessResponse{data=[]SessionInfo}
// @Router       /api/v1/sessions [get]
func (h *Handler) ListSessions(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil || limit <= 0 {
		badRequest(c, 40004, "invalid limit", err)
		return
	}

	sessions, err := h.projectService.ListSessions(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	list := make([]SessionInfo, len(sessions))
	for i, s := range sessions {
		list[i] = toSessionInfo(s, false)
	}
	c.JSON(http.StatusOK, httputil.NewSuccessResponse("ok", list))
}

// GetPrompts exports the image prompts as text
// @Summary      Export image prompts
// @Description  One "NNN prompt" line per scene followed by a blank line, NNN being the slot A image number
// @Tags         sessions
// @Produce      plain
// @Param        id   path      string  true  "session id"
// @Success      200  {string}  string
// @Failure      404  {object}  ErrorResponse
// @Router       /api/v1/sessions/{id}/prompts [get]
func (h *Handler) GetPrompts(c *gin.Context) {
	prompts, err := h.projectService.Prompts(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="prompts.txt"`)
	c.String(http.StatusOK, prompts)
}
