package controllers

import (
	"net/http"

	"foodgram/config"
	"foodgram/models"
	"foodgram/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

// membershipKinds maps the path segment of the memberships view.
var membershipKinds = map[string]models.MembershipKind{
	"favorites":     models.Favorite,
	"shopping_cart": models.ShoppingCartKind,
}

type AdminController struct {
	adminService services.AdminService
	userService  services.UserService
	guard        *Guard
	pagination   config.PaginationConfig
	log          *zap.Logger
}

func NewAdminController(adminService services.AdminService, userService services.UserService,
	guard *Guard, pagination config.PaginationConfig, log *zap.Logger) *AdminController {
	return &AdminController{
		adminService: adminService,
		userService:  userService,
		guard:        guard,
		pagination:   pagination,
		log:          log,
	}
}

func (ctl *AdminController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/api/admin").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	ws.Filter(ctl.guard.Required())
	tags := []string{"admin"}
	view := ctl.guard.Can(models.PermAdminView)
	block := ctl.guard.Can(models.PermUsersBlock)
	userID := ws.PathParameter("user-id", "Identifier of the user").DataType("integer")

	ws.Route(ws.GET("/recipes").Filter(view).To(ctl.recipesHandler).
		Doc("Search recipes by name, author email or ingredient name").
		Param(ws.QueryParameter("search", "Case-insensitive substring")).
		Param(ws.QueryParameter("page", "Page number (default 1)").DataType("integer")).
		Param(ws.QueryParameter("limit", "Page size").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "Recipe summaries", Page{}).
		Returns(http.StatusForbidden, "Forbidden", nil))

	ws.Route(ws.GET("/memberships/{kind}").Filter(view).To(ctl.membershipsHandler).
		Doc("Per-user favorites or shopping cart contents").
		Param(ws.PathParameter("kind", "favorites or shopping_cart")).
		Param(ws.QueryParameter("page", "Page number (default 1)").DataType("integer")).
		Param(ws.QueryParameter("limit", "Page size").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "Membership summaries", Page{}).
		Returns(http.StatusForbidden, "Forbidden", nil).
		Returns(http.StatusNotFound, "Unknown kind", nil))

	ws.Route(ws.POST("/users/{user-id:[0-9]+}/block").Filter(block).To(ctl.blockHandler(true)).
		Doc("Block a user").
		Param(userID).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusNoContent, "Blocked", nil).
		Returns(http.StatusForbidden, "Forbidden", nil).
		Returns(http.StatusNotFound, "User not found", nil))

	ws.Route(ws.DELETE("/users/{user-id:[0-9]+}/block").Filter(block).To(ctl.blockHandler(false)).
		Doc("Unblock a user").
		Param(userID).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusNoContent, "Unblocked", nil).
		Returns(http.StatusForbidden, "Forbidden", nil).
		Returns(http.StatusNotFound, "User not found", nil))
}

func (ctl *AdminController) recipesHandler(request *restful.Request, response *restful.Response) {
	p := readPage(request, ctl.pagination)
	rows, total, err := ctl.adminService.Recipes(request.Request.Context(), request.QueryParameter("search"), p.offset(), p.limit)
	if err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, newPage(request, p, total, rows), restful.MIME_JSON)
}

func (ctl *AdminController) membershipsHandler(request *restful.Request, response *restful.Response) {
	kind, ok := membershipKinds[request.PathParameter("kind")]
	if !ok {
		writeNotFound(response)
		return
	}
	p := readPage(request, ctl.pagination)
	rows, total, err := ctl.adminService.Memberships(request.Request.Context(), kind, p.offset(), p.limit)
	if err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, newPage(request, p, total, rows), restful.MIME_JSON)
}

func (ctl *AdminController) blockHandler(blocked bool) restful.RouteFunction {
	return func(request *restful.Request, response *restful.Response) {
		id, ok := pathID(request, "user-id")
		if !ok {
			writeNotFound(response)
			return
		}
		if err := ctl.userService.SetBlocked(request.Request.Context(), id, blocked); err != nil {
			handleServiceError(ctl.log, request, response, err)
			return
		}
		response.WriteHeader(http.StatusNoContent)
	}
}
