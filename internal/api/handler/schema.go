package handler

import (
	"time"

	"github.com/squadron/asset-verification/internal/core/domain"
	"github.com/squadron/asset-verification/internal/guard"
)

// errorResponse is the error envelope returned on all 4xx/5xx responses.
// Field is set only when a registration field is missing.
type errorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type loginRequest struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

type registerRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
	EmployeeID string `json:"employeeId"`
}

type registerResponse struct {
	ID         int64       `json:"id"`
	Username   string      `json:"username"`
	Name       string      `json:"name"`
	Role       domain.Role `json:"role"`
	Email      string      `json:"email"`
	Department string      `json:"department"`
	EmployeeID string      `json:"employeeId"`
}

type serviceHealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
}

type usersResponse struct {
	Users []*domain.User `json:"users"`
	Count int            `json:"count"`
}

type auditEventResponse struct {
	Kind       domain.AuthEventKind `json:"kind"`
	Username   string               `json:"username"`
	Role       domain.Role          `json:"role,omitempty"`
	RemoteAddr string               `json:"remoteAddr,omitempty"`
	Timestamp  time.Time            `json:"timestamp"`
}

type auditEventsQuery struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=500"`
}

type routesResponse struct {
	Routes []guard.Route `json:"routes"`
}

type decisionQuery struct {
	Path string `query:"path" validate:"required,startswith=/"`
}

type decisionResponse struct {
	Path     string         `json:"path"`
	Decision guard.Decision `json:"decision"`
}
