package project

import (
	projectService "vrewgen/internal/service/project"
)

// Handler session endpoints
type Handler struct {
	projectService projectService.Service
}

// NewHandler creates the session handler.
func NewHandler(projectService projectService.Service) *Handler {
	return &Handler{
		projectService: projectService,
	}
}
