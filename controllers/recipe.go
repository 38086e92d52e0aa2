package controllers

import (
	"net/http"
	"strconv"

	"foodgram/config"
	"foodgram/metrics"
	"foodgram/models"
	"foodgram/services"
	"foodgram/shoppinglist"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

type RecipeController struct {
	recipeService     services.RecipeService
	membershipService services.MembershipService
	guard             *Guard
	pagination        config.PaginationConfig
	log               *zap.Logger
}

func NewRecipeController(recipeService services.RecipeService, membershipService services.MembershipService,
	guard *Guard, pagination config.PaginationConfig, log *zap.Logger) *RecipeController {
	return &RecipeController{
		recipeService:     recipeService,
		membershipService: membershipService,
		guard:             guard,
		pagination:        pagination,
		log:               log,
	}
}

func (ctl *RecipeController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/api/recipes").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	tags := []string{"recipes"}
	recipeID := ws.PathParameter("recipe-id", "Identifier of the recipe").DataType("integer")

	ws.Route(ws.GET("").Filter(ctl.guard.Optional()).To(ctl.listHandler).
		Doc("List recipes, newest first").
		Param(ws.QueryParameter("page", "Page number (default 1)").DataType("integer")).
		Param(ws.QueryParameter("limit", "Page size").DataType("integer")).
		Param(ws.QueryParameter("author", "Author id").DataType("integer")).
		Param(ws.QueryParameter("tags", "Tag slug, repeatable").AllowMultiple(true)).
		Param(ws.QueryParameter("name", "Part of the recipe name, case-insensitive")).
		Param(ws.QueryParameter("is_favorited", "1 or 0, authenticated users only")).
		Param(ws.QueryParameter("is_in_shopping_cart", "1 or 0, authenticated users only")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "Recipes listed", Page{}))

	ws.Route(ws.POST("").Filter(ctl.guard.Required()).To(ctl.createHandler).
		Doc("Create a recipe").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.RecipeInput{}).
		Returns(http.StatusCreated, "Recipe created", services.RecipeResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", nil).
		Returns(http.StatusUnauthorized, "Unauthorized", nil))

	ws.Route(ws.GET("/download_shopping_cart").Filter(ctl.guard.Required()).To(ctl.downloadHandler).
		Doc("Download the aggregated shopping list").
		Param(ws.QueryParameter("format", "txt (default) or pdf")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Produces("text/plain", "application/pdf").
		Returns(http.StatusOK, "Shopping list", nil).
		Returns(http.StatusBadRequest, "Unknown format", nil).
		Returns(http.StatusUnauthorized, "Unauthorized", nil))

	ws.Route(ws.GET("/{recipe-id:[0-9]+}").Filter(ctl.guard.Optional()).To(ctl.getHandler).
		Doc("Get recipe by ID").
		Param(recipeID).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "Recipe found", services.RecipeResponse{}).
		Returns(http.StatusNotFound, "Recipe not found", nil))

	ws.Route(ws.PUT("/{recipe-id:[0-9]+}").Filter(ctl.guard.Required()).To(ctl.replaceHandler).
		Doc("Replace a recipe, the image may be omitted").
		Param(recipeID).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.RecipeInput{}).
		Returns(http.StatusOK, "Recipe updated", services.RecipeResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", nil).
		Returns(http.StatusForbidden, "Forbidden", nil).
		Returns(http.StatusNotFound, "Recipe not found", nil))

	ws.Route(ws.PATCH("/{recipe-id:[0-9]+}").Filter(ctl.guard.Required()).To(ctl.patchHandler).
		Doc("Update the supplied recipe fields").
		Param(recipeID).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.RecipeInput{}).
		Returns(http.StatusOK, "Recipe updated", services.RecipeResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", nil).
		Returns(http.StatusForbidden, "Forbidden", nil).
		Returns(http.StatusNotFound, "Recipe not found", nil))

	ws.Route(ws.DELETE("/{recipe-id:[0-9]+}").Filter(ctl.guard.Required()).To(ctl.deleteHandler).
		Doc("Delete a recipe").
		Param(recipeID).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusNoContent, "Recipe deleted", nil).
		Returns(http.StatusForbidden, "Forbidden", nil).
		Returns(http.StatusNotFound, "Recipe not found", nil))

	for _, m := range []struct {
		path string
		kind models.MembershipKind
	}{
		{"favorite", models.Favorite},
		{"shopping_cart", models.ShoppingCartKind},
	} {
		ws.Route(ws.POST("/{recipe-id:[0-9]+}/"+m.path).Filter(ctl.guard.Required()).To(ctl.addHandler(m.kind)).
			Doc("Add the recipe to "+m.kind.String()).
			Param(recipeID).
			Metadata(restfulspec.KeyOpenAPITags, tags).
			Returns(http.StatusCreated, "Added", services.RecipeShortResponse{}).
			Returns(http.StatusBadRequest, "Already added", nil).
			Returns(http.StatusNotFound, "Recipe not found", nil))

		ws.Route(ws.DELETE("/{recipe-id:[0-9]+}/"+m.path).Filter(ctl.guard.Required()).To(ctl.removeHandler(m.kind)).
			Doc("Remove the recipe from "+m.kind.String()).
			Param(recipeID).
			Metadata(restfulspec.KeyOpenAPITags, tags).
			Returns(http.StatusNoContent, "Removed", nil).
			Returns(http.StatusNotFound, "Recipe or membership not found", nil))
	}
}

func (ctl *RecipeController) listHandler(request *restful.Request, response *restful.Response) {
	p := readPage(request, ctl.pagination)
	query := services.RecipeQuery{
		Tags:             request.QueryParameters("tags"),
		IsFavorited:      flagParam(request, "is_favorited"),
		IsInShoppingCart: flagParam(request, "is_in_shopping_cart"),
		Name:             request.QueryParameter("name"),
	}
	if author, err := strconv.ParseUint(request.QueryParameter("author"), 10, 32); err == nil {
		id := uint(author)
		query.AuthorID = &id
	}

	recipes, total, err := ctl.recipeService.List(request.Request.Context(), viewerID(request), query, p.offset(), p.limit)
	if err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, newPage(request, p, total, recipes), restful.MIME_JSON)
}

func (ctl *RecipeController) getHandler(request *restful.Request, response *restful.Response) {
	id, ok := pathID(request, "recipe-id")
	if !ok {
		writeNotFound(response)
		return
	}
	recipe, err := ctl.recipeService.Get(request.Request.Context(), viewerID(request), id)
	if err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, recipe, restful.MIME_JSON)
}

func (ctl *RecipeController) createHandler(request *restful.Request, response *restful.Response) {
	input := new(services.RecipeInput)
	if !readBody(request, response, input) {
		return
	}
	recipe, err := ctl.recipeService.Create(request.Request.Context(), viewerID(request), input)
	if err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, recipe, restful.MIME_JSON)
}

func (ctl *RecipeController) replaceHandler(request *restful.Request, response *restful.Response) {
	ctl.update(request, response, services.ModeReplace)
}

func (ctl *RecipeController) patchHandler(request *restful.Request, response *restful.Response) {
	ctl.update(request, response, services.ModePatch)
}

func (ctl *RecipeController) update(request *restful.Request, response *restful.Response, mode services.WriteMode) {
	id, ok := pathID(request, "recipe-id")
	if !ok {
		writeNotFound(response)
		return
	}
	input := new(services.RecipeInput)
	if !readBody(request, response, input) {
		return
	}
	recipe, err := ctl.recipeService.Update(request.Request.Context(), viewerID(request), id, input, mode)
	if err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, recipe, restful.MIME_JSON)
}

func (ctl *RecipeController) deleteHandler(request *restful.Request, response *restful.Response) {
	id, ok := pathID(request, "recipe-id")
	if !ok {
		writeNotFound(response)
		return
	}
	if err := ctl.recipeService.Delete(request.Request.Context(), viewerID(request), id); err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	response.WriteHeader(http.StatusNoContent)
}

func (ctl *RecipeController) addHandler(kind models.MembershipKind) restful.RouteFunction {
	return func(request *restful.Request, response *restful.Response) {
		id, ok := pathID(request, "recipe-id")
		if !ok {
			writeNotFound(response)
			return
		}
		short, err := ctl.membershipService.Add(request.Request.Context(), kind, viewerID(request), id)
		if err != nil {
			handleServiceError(ctl.log, request, response, err)
			return
		}
		_ = response.WriteHeaderAndJson(http.StatusCreated, short, restful.MIME_JSON)
	}
}

func (ctl *RecipeController) removeHandler(kind models.MembershipKind) restful.RouteFunction {
	return func(request *restful.Request, response *restful.Response) {
		id, ok := pathID(request, "recipe-id")
		if !ok {
			writeNotFound(response)
			return
		}
		if err := ctl.membershipService.Remove(request.Request.Context(), kind, viewerID(request), id); err != nil {
			handleServiceError(ctl.log, request, response, err)
			return
		}
		response.WriteHeader(http.StatusNoContent)
	}
}

func (ctl *RecipeController) downloadHandler(request *restful.Request, response *restful.Response) {
	format, err := shoppinglist.ParseFormat(request.QueryParameter("format"))
	if err != nil {
		handleServiceError(ctl.log, request, response, services.NewValidationError("format", err.Error()))
		return
	}
	data, err := ctl.recipeService.ShoppingList(request.Request.Context(), viewerID(request), format)
	if err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	metrics.RecordShoppingListDownload(string(format))
	response.AddHeader("Content-Type", format.ContentType())
	response.AddHeader("Content-Disposition", `attachment; filename="`+format.Filename()+`"`)
	response.WriteHeader(http.StatusOK)
	_, _ = response.Write(data)
}

// flagParam reads a boolean filter. Anything but 1/0 or true/false means
// the filter is not applied.
func flagParam(request *restful.Request, name string) *bool {
	v, err := strconv.ParseBool(request.QueryParameter(name))
	if err != nil {
		return nil
	}
	return &v
}
