package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/postboard/apiv1/logging"
	"github.com/postboard/apiv1/middlewares"
	"github.com/postboard/apiv1/models"
	"github.com/postboard/apiv1/services"
	"github.com/postboard/apiv1/utils"
)

type NewPostRequest struct {
	Title        string   `json:"title" validate:"required,max=200"`
	Message      string   `json:"message" validate:"required,max=10000"`
	Name         string   `json:"name" validate:"max=128"`
	Tags         []string `json:"tags" validate:"max=20,dive,max=50"`
	SelectedFile string   `json:"selectedFile"`
}

type UpdatePostRequest struct {
	Title        *string  `json:"title" validate:"omitempty,max=200"`
	Message      *string  `json:"message" validate:"omitempty,max=10000"`
	Tags         []string `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	SelectedFile *string  `json:"selectedFile"`
}

var postErrors = errorMessages{utils.ErrNotFound: utils.POST_NOT_FOUND_ERROR}

type postsHandler struct {
	posts  *services.PostService
	logger logging.Logger
}

// PostsRouter registers the post routes. Mutations go through guard.
func PostsRouter(s *mux.Router, h *postsHandler, guard func(http.Handler) http.Handler) {
	s.HandleFunc("/{id}", h.GetPost).Methods(http.MethodGet)
	s.Handle("", guard(http.HandlerFunc(h.CreatePost))).Methods(http.MethodPost)
	s.Handle("/{id}", guard(http.HandlerFunc(h.UpdatePost))).Methods(http.MethodPatch)
	s.Handle("/{id}", guard(http.HandlerFunc(h.DeletePost))).Methods(http.MethodDelete)
}

func (h *postsHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, h.logger, err, postErrors)
		return
	}
	utils.WriteJSON(w, http.StatusOK, post)
}

func (h *postsHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeValidBody[NewPostRequest](w, r)
	if err != nil {
		writeServiceError(w, r, h.logger, err, nil)
		return
	}

	caller, _ := middlewares.IdentityFromContext(r.Context())
	post, err := h.posts.Create(r.Context(), caller, models.Post{
		Title:        utils.SanitizeText(req.Title),
		Message:      req.Message,
		Name:         utils.SanitizeText(req.Name),
		Tags:         req.Tags,
		SelectedFile: req.SelectedFile,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err, postErrors)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, post)
}

func (h *postsHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeValidBody[UpdatePostRequest](w, r)
	if err != nil {
		writeServiceError(w, r, h.logger, err, nil)
		return
	}
	if req.Title != nil {
		title := utils.SanitizeText(*req.Title)
		req.Title = &title
	}

	caller, _ := middlewares.IdentityFromContext(r.Context())
	post, err := h.posts.Update(r.Context(), caller, mux.Vars(r)["id"], models.PostPatch{
		Title:        req.Title,
		Message:      req.Message,
		Tags:         req.Tags,
		SelectedFile: req.SelectedFile,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err, postErrors)
		return
	}
	utils.WriteJSON(w, http.StatusOK, post)
}

func (h *postsHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	caller, _ := middlewares.IdentityFromContext(r.Context())
	if err := h.posts.Delete(r.Context(), caller, mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, r, h.logger, err, postErrors)
		return
	}
	utils.WriteMessage(w, http.StatusOK, utils.POST_DELETED)
}
