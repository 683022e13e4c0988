package routes

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/postboard/apiv1/logging"
	"github.com/postboard/apiv1/middlewares"
	"github.com/postboard/apiv1/services"
	"github.com/postboard/apiv1/utils"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Dependencies are the services the HTTP surface is built on.
type Dependencies struct {
	Auth     *services.AuthService
	Posts    *services.PostService
	Verifier middlewares.Verifier
	Logger   logging.Logger
	// IPRateLimit is the per client IP request rate on /user, per second.
	// Zero disables the throttle.
	IPRateLimit float64
}

func CreateRoutes(r *mux.Router, deps Dependencies) {
	r.Use(middlewares.RequestLogger(deps.Logger))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		utils.WriteMessage(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})

	u := r.PathPrefix("/user").Subrouter()
	if deps.IPRateLimit > 0 {
		u.Use(middlewares.IPRateLimit(deps.IPRateLimit))
	}
	AuthRouter(u, &authHandler{auth: deps.Auth, logger: deps.Logger})

	p := r.PathPrefix("/posts").Subrouter()
	PostsRouter(p, &postsHandler{posts: deps.Posts, logger: deps.Logger},
		middlewares.IsAccessTokenAuthorized(deps.Verifier, deps.Logger))
}
