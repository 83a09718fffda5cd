package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type SpecialtyInfo struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

type StatusResponse struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Mode        string          `json:"mode"`
	AIEnabled   bool            `json:"ai_enabled"`
	Provider    string          `json:"provider,omitempty"`
	Model       string          `json:"model,omitempty"`
	Specialties []SpecialtyInfo `json:"specialties"`
}

// GetStatus reports instance health and the available specialties.
func (s *APIV1Service) GetStatus(c echo.Context) error {
	response := &StatusResponse{
		Name:      "triagesense",
		Version:   s.Profile.Version,
		Mode:      s.Profile.Mode,
		AIEnabled: s.Router != nil,
	}
	if s.Router != nil {
		response.Provider = s.Profile.LLMProvider
		response.Model = s.Profile.LLMModel
	}

	for _, profile := range s.Profiles {
		response.Specialties = append(response.Specialties, SpecialtyInfo{
			Key:         profile.Key(),
			Name:        profile.Name(),
			Icon:        profile.Icon(),
			Description: profile.Description(),
		})
	}

	return c.JSON(http.StatusOK, response)
}
