package controllers

import (
	"net/http"

	"foodgram/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

type AuthController struct {
	userService services.UserService
	guard       *Guard
	log         *zap.Logger
}

func NewAuthController(userService services.UserService, guard *Guard, log *zap.Logger) *AuthController {
	return &AuthController{userService: userService, guard: guard, log: log}
}

// RegisterRoutes sets up the token routes. Tokens are stateless JWTs, so
// logout only confirms the caller was authenticated.
func (ctl *AuthController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/api/auth").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	tags := []string{"auth"}

	ws.Route(ws.POST("/token/login").To(ctl.loginHandler).
		Doc("Obtain an auth token").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.LoginInput{}).
		Returns(http.StatusOK, "Token issued", services.TokenResponse{}).
		Returns(http.StatusBadRequest, "Invalid credentials", nil).
		Returns(http.StatusUnauthorized, "Account blocked", nil))

	ws.Route(ws.POST("/token/logout").Filter(ctl.guard.Required()).To(ctl.logoutHandler).
		Doc("Discard the current token").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusNoContent, "Logged out", nil).
		Returns(http.StatusUnauthorized, "Unauthorized", nil))
}

func (ctl *AuthController) loginHandler(request *restful.Request, response *restful.Response) {
	input := new(services.LoginInput)
	if !readBody(request, response, input) {
		return
	}
	token, err := ctl.userService.Login(request.Request.Context(), input)
	if err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, token, restful.MIME_JSON)
}

func (ctl *AuthController) logoutHandler(request *restful.Request, response *restful.Response) {
	response.WriteHeader(http.StatusNoContent)
}
