package project

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	httputil "vrewgen/internal/pkg/http"
	"vrewgen/internal/pkg/mediabind"
	projectService "vrewgen/internal/service/project"
)

// AttachMediaResponseData media binding result
type AttachMediaResponseData struct {
	Session SessionInfo `json:"session"`
	Ignored []string    `json:"ignored,omitempty"` // files without a leading number
}

// AttachMedia binds numbered media files to scene slots
// @Summary      Attach media
// @Description  File n binds to scene (n+1)/2, slot A when n is odd and B when even. Replaces the previous binding.
// @Tags         media
// @Accept       multipart/form-data
// @Produce      json
// @Param        id     path      string  true  "session id"
// @Param        files  formData  file    true  "media files (repeatable)"
// @Success      200    {object}  httputil.SuccessResponse{data=AttachMediaResponseData}
// @Failure      400    {object}  ErrorResponse
// @Failure      404    {object}  ErrorResponse
// @Router       /api/v1/sessions/{id}/media [post]
func (h *Handler) AttachMedia(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, 40005, "invalid multipart form", err)
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		badRequest(c, 40006, "at least one file is required", nil)
		return
	}

	files, closeAll, err := openAll(headers)
	if err != nil {
		badRequest(c, 40003, "failed to open file", err)
		return
	}
	defer closeAll()

	res, err := h.projectService.AttachMedia(c.Request.Context(), c.Param("id"), files)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httputil.NewSuccessResponse("media attached", AttachMediaResponseData{
		Session: toSessionInfo(res.Session, true),
		Ignored: res.Ignored,
	}))
}

// UploadSlot fills or replaces one slot of a scene
// @Summary      Upload a slot
// @Tags         media
// @Accept       multipart/form-data
// @Produce      json
// @Param        id      path      string  true  "session id"
// @Param        raw_id  path      string  true  "scene id, e.g. 1-2"
// @Param        slot    path      string  true  "A or B"
// @Param        file    formData  file    true  "media file"
// @Success      200     {object}  httputil.SuccessResponse{data=SessionInfo}
// @Failure      400     {object}  ErrorResponse
// @Failure      404     {object}  ErrorResponse
// @Router       /api/v1/sessions/{id}/scenes/{raw_id}/slots/{slot} [put]
func (h *Handler) UploadSlot(c *gin.Context) {
	slot, err := mediabind.ParseSlot(c.Param("slot"))
	if err != nil {
		badRequest(c, 40007, "invalid slot", err)
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, 40001, "file is required", err)
		return
	}
	body, err := fh.Open()
	if err != nil {
		badRequest(c, 40003, "failed to open file", err)
		return
	}
	defer body.Close()

	sess, err := h.projectService.UploadSlot(c.Request.Context(), c.Param("id"), c.Param("raw_id"), slot,
		projectService.MediaFile{Name: fh.Filename, Body: body})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httputil.NewSuccessResponse("slot uploaded", toSessionInfo(sess, true)))
}

// SelectSlotRequest slot selection body
type SelectSlotRequest struct {
	Slot string `json:"slot" binding:"required"` // A or B
}

// SelectSlot chooses the media that represents a scene
// @Summary      Select a slot
// @Tags         media
// @Accept       json
// @Produce      json
// @Param        id       path      string             true  "session id"
// @Param        raw_id   path      string             true  "scene id, e.g. 1-2"
// @Param        request  body      SelectSlotRequest  true  "slot to select"
// @Success      200      {object}  httputil.SuccessResponse{data=SessionInfo}
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse  "slot has no file"
// @Router       /api/v1/sessions/{id}/scenes/{raw_id}/select [post]
func (h *Handler) SelectSlot(c *gin.Context) {
	var req SelectSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, 40008, "invalid request body", err)
		return
	}
	slot, err := mediabind.ParseSlot(req.Slot)
	if err != nil {
		badRequest(c, 40007, "invalid slot", err)
		return
	}

	sess, err := h.projectService.SelectSlot(c.Request.Context(), c.Param("id"), c.Param("raw_id"), slot)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httputil.NewSuccessResponse("slot selected", toSessionInfo(sess, true)))
}

func openAll(files []*multipart.FileHeader) ([]projectService.MediaFile, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	media := make([]projectService.MediaFile, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		opened = append(opened, f)
		media = append(media, projectService.MediaFile{Name: fh.Filename, Body: f})
	}
	return media, closeAll, nil
}
