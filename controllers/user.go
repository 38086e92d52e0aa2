package controllers

import (
	"net/http"
	"strconv"

	"foodgram/config"
	"foodgram/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

// Define the Service interfaces that the Controller depends on
type UserController struct {
	userService         services.UserService
	subscriptionService services.SubscriptionService
	guard               *Guard
	pagination          config.PaginationConfig
	log                 *zap.Logger
}

// Constructor, used to create a UserController instance
func NewUserController(userService services.UserService, subscriptionService services.SubscriptionService,
	guard *Guard, pagination config.PaginationConfig, log *zap.Logger) *UserController {
	return &UserController{
		userService:         userService,
		subscriptionService: subscriptionService,
		guard:               guard,
		pagination:          pagination,
		log:                 log,
	}
}

// --- go-restful Route Definitions ---

// RegisterRoutes sets up the user-related routes for a go-restful WebService.
func (ctl *UserController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/api/users").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	tags := []string{"users"}
	userID := ws.PathParameter("user-id", "Identifier of the user").DataType("integer")
	page := ws.QueryParameter("page", "Page number (default 1)").DataType("integer")
	limit := ws.QueryParameter("limit", "Page size").DataType("integer")
	recipesLimit := ws.QueryParameter("recipes_limit", "Recipes shown per author, all when absent").DataType("integer")

	// Registration is public
	ws.Route(ws.POST("").To(ctl.registerHandler).
		Doc("Register a new user").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.RegisterInput{}).
		Returns(http.StatusCreated, "User created", services.CreatedUserResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", nil))

	ws.Route(ws.GET("").Filter(ctl.guard.Optional()).To(ctl.listUsersHandler).
		Doc("List users with pagination").
		Param(page).Param(limit).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "Users listed", Page{}))

	ws.Route(ws.GET("/me").Filter(ctl.guard.Required()).To(ctl.meHandler).
		Doc("Get the current user").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes(services.UserResponse{}).
		Returns(http.StatusOK, "Current user", services.UserResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", nil))

	ws.Route(ws.PATCH("/me").Filter(ctl.guard.Required()).To(ctl.updateMeHandler).
		Doc("Update the current user's name").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.UpdateProfileInput{}).
		Returns(http.StatusOK, "User updated", services.UserResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", nil).
		Returns(http.StatusUnauthorized, "Unauthorized", nil))

	ws.Route(ws.POST("/set_password").Filter(ctl.guard.Required()).To(ctl.setPasswordHandler).
		Doc("Change the current user's password").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.SetPasswordInput{}).
		Returns(http.StatusNoContent, "Password changed", nil).
		Returns(http.StatusBadRequest, "Invalid request body", nil).
		Returns(http.StatusUnauthorized, "Unauthorized", nil))

	ws.Route(ws.GET("/subscriptions").Filter(ctl.guard.Required()).To(ctl.subscriptionsHandler).
		Doc("List followed authors with their latest recipes").
		Param(page).Param(limit).Param(recipesLimit).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "Subscriptions listed", Page{}).
		Returns(http.StatusUnauthorized, "Unauthorized", nil))

	ws.Route(ws.GET("/{user-id:[0-9]+}").Filter(ctl.guard.Optional()).To(ctl.getUserByIDHandler).
		Doc("Get user by ID").
		Param(userID).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes(services.UserResponse{}).
		Returns(http.StatusOK, "User found", services.UserResponse{}).
		Returns(http.StatusNotFound, "User not found", nil))

	ws.Route(ws.DELETE("/{user-id:[0-9]+}").Filter(ctl.guard.Required()).To(ctl.deleteUserHandler).
		Doc("Delete a user and everything they own").
		Param(userID).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusNoContent, "User deleted", nil).
		Returns(http.StatusUnauthorized, "Unauthorized", nil).
		Returns(http.StatusForbidden, "Forbidden", nil).
		Returns(http.StatusNotFound, "User not found", nil))

	ws.Route(ws.POST("/{user-id:[0-9]+}/subscribe").Filter(ctl.guard.Required()).To(ctl.subscribeHandler).
		Doc("Follow an author").
		Param(userID).Param(recipesLimit).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusCreated, "Subscribed", services.SubscriptionResponse{}).
		Returns(http.StatusBadRequest, "Self or duplicate subscription", nil).
		Returns(http.StatusUnauthorized, "Unauthorized", nil).
		Returns(http.StatusNotFound, "User not found", nil))

	ws.Route(ws.DELETE("/{user-id:[0-9]+}/subscribe").Filter(ctl.guard.Required()).To(ctl.unsubscribeHandler).
		Doc("Stop following an author").
		Param(userID).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusNoContent, "Unsubscribed", nil).
		Returns(http.StatusUnauthorized, "Unauthorized", nil).
		Returns(http.StatusNotFound, "Subscription not found", nil))
}

// --- go-restful Handler Functions ---

// registerHandler (Handles POST /api/users)
func (ctl *UserController) registerHandler(request *restful.Request, response *restful.Response) {
	input := new(services.RegisterInput)
	if !readBody(request, response, input) {
		return
	}
	user, err := ctl.userService.Register(request.Request.Context(), input)
	if err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, user, restful.MIME_JSON)
}

// listUsersHandler (Handles GET /api/users)
func (ctl *UserController) listUsersHandler(request *restful.Request, response *restful.Response) {
	p := readPage(request, ctl.pagination)
	users, total, err := ctl.userService.List(request.Request.Context(), viewerID(request), p.offset(), p.limit)
	if err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, newPage(request, p, total, users), restful.MIME_JSON)
}

func (ctl *UserController) meHandler(request *restful.Request, response *restful.Response) {
	id := viewerID(request)
	user, err := ctl.userService.Get(request.Request.Context(), id, id)
	if err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, user, restful.MIME_JSON)
}

func (ctl *UserController) updateMeHandler(request *restful.Request, response *restful.Response) {
	input := new(services.UpdateProfileInput)
	if !readBody(request, response, input) {
		return
	}
	user, err := ctl.userService.UpdateProfile(request.Request.Context(), viewerID(request), input)
	if err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, user, restful.MIME_JSON)
}

func (ctl *UserController) setPasswordHandler(request *restful.Request, response *restful.Response) {
	input := new(services.SetPasswordInput)
	if !readBody(request, response, input) {
		return
	}
	if err := ctl.userService.SetPassword(request.Request.Context(), viewerID(request), input); err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	response.WriteHeader(http.StatusNoContent)
}

func (ctl *UserController) subscriptionsHandler(request *restful.Request, response *restful.Response) {
	p := readPage(request, ctl.pagination)
	authors, total, err := ctl.subscriptionService.List(request.Request.Context(), viewerID(request),
		recipesLimitParam(request), p.offset(), p.limit)
	if err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, newPage(request, p, total, authors), restful.MIME_JSON)
}

// getUserByIDHandler (Handles GET /api/users/{user-id})
func (ctl *UserController) getUserByIDHandler(request *restful.Request, response *restful.Response) {
	targetUserID, ok := pathID(request, "user-id")
	if !ok {
		writeNotFound(response)
		return
	}
	user, err := ctl.userService.Get(request.Request.Context(), viewerID(request), targetUserID)
	if err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, user, restful.MIME_JSON)
}

// deleteUserHandler (Handles DELETE /api/users/{user-id})
func (ctl *UserController) deleteUserHandler(request *restful.Request, response *restful.Response) {
	targetUserID, ok := pathID(request, "user-id")
	if !ok {
		writeNotFound(response)
		return
	}
	if err := ctl.userService.Delete(request.Request.Context(), viewerID(request), targetUserID); err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	response.WriteHeader(http.StatusNoContent)
}

func (ctl *UserController) subscribeHandler(request *restful.Request, response *restful.Response) {
	authorID, ok := pathID(request, "user-id")
	if !ok {
		writeNotFound(response)
		return
	}
	view, err := ctl.subscriptionService.Subscribe(request.Request.Context(), viewerID(request), authorID,
		recipesLimitParam(request))
	if err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, view, restful.MIME_JSON)
}

func (ctl *UserController) unsubscribeHandler(request *restful.Request, response *restful.Response) {
	authorID, ok := pathID(request, "user-id")
	if !ok {
		writeNotFound(response)
		return
	}
	if err := ctl.subscriptionService.Unsubscribe(request.Request.Context(), viewerID(request), authorID); err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	response.WriteHeader(http.StatusNoContent)
}

// --- Utility Functions ---

// recipesLimitParam reads ?recipes_limit; absent or malformed means all.
func recipesLimitParam(request *restful.Request) int {
	n, err := strconv.Atoi(request.QueryParameter("recipes_limit"))
	if err != nil {
		return 0
	}
	return n
}
