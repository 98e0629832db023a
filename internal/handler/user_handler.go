package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/mercado-backend/internal/model"
	"github.com/shinyyama/mercado-backend/internal/service"
)

type UserHandler struct {
	svc service.UserService
}

func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

type MeResponse struct {
	UserSummary
	Email     string   `json:"email,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	CreatedAt string   `json:"createdAt"`
}

type PublicUserResponse struct {
	UID         string  `json:"uid"`
	DisplayName string  `json:"displayName"`
	PhotoURL    *string `json:"photoURL"`
	Location    string  `json:"location,omitempty"`
	Rating      float64 `json:"rating"`
	TotalSales  int     `json:"totalSales"`
}

type UpdateMeRequest struct {
	Name      *string  `json:"name"`
	AvatarURL *string  `json:"avatarUrl"`
	Location  *string  `json:"location"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func toMeResponse(u *model.User) MeResponse {
	return MeResponse{
		UserSummary: *toUserSummary(u),
		Email:       u.Email,
		Latitude:    u.Latitude,
		Longitude:   u.Longitude,
		CreatedAt:   formatTime(u.CreatedAt),
	}
}

func (h *UserHandler) Me(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	u, err := h.svc.Me(c.Request().Context(), uid)
	if err != nil {
		return serviceError(c, err, "user")
	}
	return c.JSON(http.StatusOK, toMeResponse(u))
}

func (h *UserHandler) UpdateMe(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	var req UpdateMeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	u, err := h.svc.UpdateMe(c.Request().Context(), uid, service.ProfileInput{
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
		Location:  req.Location,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		return serviceError(c, err, "user")
	}
	return c.JSON(http.StatusOK, toMeResponse(u))
}

func (h *UserHandler) GetPublic(c echo.Context) error {
	uid := c.Param("uid")
	if uid == "" {
		return badRequest(c, "invalid uid")
	}
	u, err := h.svc.Public(c.Request().Context(), uid)
	if err != nil {
		return serviceError(c, err, "user")
	}
	return c.JSON(http.StatusOK, PublicUserResponse{
		UID:         u.UID,
		DisplayName: u.Name,
		PhotoURL:    strPtrOrNil(u.AvatarURL),
		Location:    u.Location,
		Rating:      u.Rating,
		TotalSales:  u.TotalSales,
	})
}

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
