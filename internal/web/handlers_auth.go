package web

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/musicmate-app/musicmate/internal/auth"
	"github.com/musicmate-app/musicmate/internal/db"
)

type ssoInitiateRequest struct {
	Email string `json:"email"`
}

type ssoCompleteRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	StudentID   string `json:"student_id"`
	Course      string `json:"course"`
	Year        int    `json:"year"`
	Faculty     string `json:"faculty"`
	ShowCourse  bool   `json:"show_course"`
	ShowYear    bool   `json:"show_year"`
	ShowFaculty bool   `json:"show_faculty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type userResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	StudentID   *string   `json:"student_id,omitempty"`
	Course      *string   `json:"course,omitempty"`
	Year        *int      `json:"year,omitempty"`
	Faculty     *string   `json:"faculty,omitempty"`
	ShowCourse  bool      `json:"show_course"`
	ShowYear    bool      `json:"show_year"`
	ShowFaculty bool      `json:"show_faculty"`
	Verified    bool      `json:"is_verified"`
	CreatedAt   time.Time `json:"created_at"`
}

func toUserResponse(u *db.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		StudentID:   u.StudentID,
		Course:      u.Course,
		Year:        u.Year,
		Faculty:     u.Faculty,
		ShowCourse:  u.ShowCourse,
		ShowYear:    u.ShowYear,
		ShowFaculty: u.ShowFaculty,
		Verified:    u.Verified,
		CreatedAt:   u.CreatedAt,
	}
}

// SSOInitiate starts the SSO flow (POST /api/auth/sso/initiate).
func (h *Handlers) SSOInitiate(w http.ResponseWriter, r *http.Request) {
	var req ssoInitiateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if req.Email == "" {
		respondBadRequest(w, "email is required")
		return
	}

	data, err := h.deps.Auth.InitiateSSO(r.Context(), req.Email)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, data)
}

// SSOComplete creates the account (POST /api/auth/sso/complete).
func (h *Handlers) SSOComplete(w http.ResponseWriter, r *http.Request) {
	var req ssoCompleteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" || req.DisplayName == "" {
		respondBadRequest(w, "email, password and display_name are required")
		return
	}

	_, token, err := h.deps.Auth.CompleteSSO(r.Context(), auth.SignupRequest{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		StudentID:   req.StudentID,
		Course:      req.Course,
		Year:        req.Year,
		Faculty:     req.Faculty,
		ShowCourse:  req.ShowCourse,
		ShowYear:    req.ShowYear,
		ShowFaculty: req.ShowFaculty,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Login authenticates a returning user (POST /api/auth/login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	_, token, err := h.deps.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Me returns the authenticated user's profile (GET /api/auth/me).
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, toUserResponse(currentUser(r)))
}

type profileUpdateRequest struct {
	DisplayName *string `json:"display_name"`
	Course      *string `json:"course"`
	Year        *int    `json:"year"`
	Faculty     *string `json:"faculty"`
	ShowCourse  *bool   `json:"show_course"`
	ShowYear    *bool   `json:"show_year"`
	ShowFaculty *bool   `json:"show_faculty"`
}

// UpdateMe updates profile fields and visibility settings
// (PUT /api/auth/me). Absent fields are left untouched.
func (h *Handlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req profileUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	user := currentUser(r)
	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.Course != nil {
		user.Course = req.Course
	}
	if req.Year != nil {
		user.Year = req.Year
	}
	if req.Faculty != nil {
		user.Faculty = req.Faculty
	}
	if req.ShowCourse != nil {
		user.ShowCourse = *req.ShowCourse
	}
	if req.ShowYear != nil {
		user.ShowYear = *req.ShowYear
	}
	if req.ShowFaculty != nil {
		user.ShowFaculty = *req.ShowFaculty
	}

	if err := h.deps.Users.Update(r.Context(), user); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(user))
}
