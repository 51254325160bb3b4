package project

import (
	"net/http"

	"github.com/gin-gonic/gin"

	httputil "vrewgen/internal/pkg/http"
	projectService "vrewgen/internal/service/project"
)

// CreateSession aligns an uploaded script against its marker sheet
// @Summary      Create a session
// @Description  Uploads a narration script and a marker sheet (csv, tsv, xlsx, yaml), aligns the markers and splits the scenes into clips
// @Tags         sessions
// @Accept       multipart/form-data
// @Produce      json
// @Param        script  formData  file  true  "narration script (UTF-8 or CP949 text)"
// @Param        sheet   formData  file  true  "marker sheet: id, start text, prompt"
// @Success      201     {object}  httputil.SuccessResponse{data=SessionInfo}
// @Failure      400     {object}  ErrorResponse
// @Failure      422     {object}  ErrorResponse  "no valid markers"
// @Failure      500     {object}  ErrorResponse
// @Router       /api/v1/sessions [post]
func (h *Handler) CreateSession(c *gin.Context) {
	script, err := c.FormFile("script")
	if err != nil {
		badRequest(c, 40001, "script file is required", err)
		return
	}
	sheetFile, err := c.FormFile("sheet")
	if err != nil {
		badRequest(c, 40002, "sheet file is required", err)
		return
	}

	scriptBody, err := script.Open()
	if err != nil {
		badRequest(c, 40003, "failed to open script", err)
		return
	}
	defer scriptBody.Close()

	sheetBody, err := sheetFile.Open()
	if err != nil {
		badRequest(c, 40003, "failed to open sheet", err)
		return
	}
	defer sheetBody.Close()

	sess, err := h.projectService.CreateSession(c.Request.Context(), &projectService.CreateSessionRequest{
		ScriptName: script.Filename,
		Script:     scriptBody,
		SheetName:  sheetFile.Filename,
		Sheet:      sheetBody,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httputil.NewSuccessResponse("session created", toSessionInfo(sess, true)))
}
