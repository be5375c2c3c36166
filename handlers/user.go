package handlers

import (
	"net/http"

	"github.com/akinalp/socialspace/models"
	"github.com/akinalp/socialspace/pkg"
	"github.com/akinalp/socialspace/services"
)

// UserHandler serves profiles, search and the follow graph.
type UserHandler struct {
	userService   services.UserService
	maxUploadSize int64
}

// NewUserHandler builds a UserHandler. maxUploadSize bounds the avatar.
func NewUserHandler(userService services.UserService, maxUploadSize int64) *UserHandler {
	return &UserHandler{
		userService:   userService,
		maxUploadSize: maxUploadSize,
	}
}

// Profile godoc
// GET /api/v1/user/{id}/profile
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.userService.GetProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, "", profile)
}

// EditProfile godoc
// POST /api/v1/user/profile/edit
//
// Multipart fields: bio, gender, profile_picture (file). Absent fields are
// left unchanged.
func (h *UserHandler) EditProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := parseForm(w, r, h.maxUploadSize); err != nil {
		pkg.Error(w, err)
		return
	}

	var req models.UpdateProfileRequest
	if vals, ok := r.MultipartForm.Value["bio"]; ok && len(vals) > 0 {
		req.Bio = &vals[0]
	}
	if vals, ok := r.MultipartForm.Value["gender"]; ok && len(vals) > 0 {
		req.Gender = &vals[0]
	}

	avatar, file, err := formUpload(r, "profile_picture")
	if err != nil {
		pkg.Error(w, err)
		return
	}
	if file != nil {
		defer file.Close()
	}

	updated, err := h.userService.EditProfile(r.Context(), user.ID, &req, avatar)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, "Profile updated.", updated)
}

// Suggested godoc
// GET /api/v1/user/suggested
func (h *UserHandler) Suggested(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	users, err := h.userService.Suggested(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, "", users)
}

// FollowOrUnfollow godoc
// POST /api/v1/user/followorunfollow/{id}
func (h *UserHandler) FollowOrUnfollow(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	result, err := h.userService.FollowOrUnfollow(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	message := "Unfollowed successfully."
	if result.Following {
		message = "Followed successfully."
	}
	pkg.JSON(w, http.StatusOK, message, result)
}

// Search godoc
// GET /api/v1/user/search?q=
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, "", users)
}
