package controllers

import (
	"net/http"

	"foodgram/models"
	"foodgram/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

type IngredientController struct {
	ingredientService services.IngredientService
	guard             *Guard
	log               *zap.Logger
}

func NewIngredientController(ingredientService services.IngredientService, guard *Guard, log *zap.Logger) *IngredientController {
	return &IngredientController{ingredientService: ingredientService, guard: guard, log: log}
}

func (ctl *IngredientController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/api/ingredients").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	tags := []string{"ingredients"}
	ingredientID := ws.PathParameter("ingredient-id", "Identifier of the ingredient").DataType("integer")
	manage := ctl.guard.Can(models.PermIngredientsManage)

	ws.Route(ws.GET("").To(ctl.listHandler).
		Doc("List ingredients").
		Param(ws.QueryParameter("name", "Case-insensitive name prefix")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "Ingredients listed", []services.IngredientResponse{}))

	ws.Route(ws.GET("/{ingredient-id:[0-9]+}").To(ctl.getHandler).
		Doc("Get ingredient by ID").
		Param(ingredientID).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "Ingredient found", services.IngredientResponse{}).
		Returns(http.StatusNotFound, "Ingredient not found", nil))

	ws.Route(ws.POST("").Filter(ctl.guard.Required()).Filter(manage).To(ctl.createHandler).
		Doc("Create an ingredient").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.IngredientInput{}).
		Returns(http.StatusCreated, "Ingredient created", services.IngredientResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", nil).
		Returns(http.StatusForbidden, "Forbidden", nil))

	ws.Route(ws.PATCH("/{ingredient-id:[0-9]+}").Filter(ctl.guard.Required()).Filter(manage).To(ctl.updateHandler).
		Doc("Update an ingredient").
		Param(ingredientID).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.IngredientPatchInput{}).
		Returns(http.StatusOK, "Ingredient updated", services.IngredientResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", nil).
		Returns(http.StatusForbidden, "Forbidden", nil).
		Returns(http.StatusNotFound, "Ingredient not found", nil))

	ws.Route(ws.DELETE("/{ingredient-id:[0-9]+}").Filter(ctl.guard.Required()).Filter(manage).To(ctl.deleteHandler).
		Doc("Delete an unused ingredient").
		Param(ingredientID).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusNoContent, "Ingredient deleted", nil).
		Returns(http.StatusBadRequest, "Ingredient in use", nil).
		Returns(http.StatusForbidden, "Forbidden", nil).
		Returns(http.StatusNotFound, "Ingredient not found", nil))
}

func (ctl *IngredientController) listHandler(request *restful.Request, response *restful.Response) {
	list, err := ctl.ingredientService.List(request.Request.Context(), request.QueryParameter("name"))
	if err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, list, restful.MIME_JSON)
}

func (ctl *IngredientController) getHandler(request *restful.Request, response *restful.Response) {
	id, ok := pathID(request, "ingredient-id")
	if !ok {
		writeNotFound(response)
		return
	}
	ingredient, err := ctl.ingredientService.Get(request.Request.Context(), id)
	if err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, ingredient, restful.MIME_JSON)
}

func (ctl *IngredientController) createHandler(request *restful.Request, response *restful.Response) {
	input := new(services.IngredientInput)
	if !readBody(request, response, input) {
		return
	}
	ingredient, err := ctl.ingredientService.Create(request.Request.Context(), input)
	if err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, ingredient, restful.MIME_JSON)
}

func (ctl *IngredientController) updateHandler(request *restful.Request, response *restful.Response) {
	id, ok := pathID(request, "ingredient-id")
	if !ok {
		writeNotFound(response)
		return
	}
	input := new(services.IngredientPatchInput)
	if !readBody(request, response, input) {
		return
	}
	ingredient, err := ctl.ingredientService.Update(request.Request.Context(), id, input)
	if err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, ingredient, restful.MIME_JSON)
}

func (ctl *IngredientController) deleteHandler(request *restful.Request, response *restful.Response) {
	id, ok := pathID(request, "ingredient-id")
	if !ok {
		writeNotFound(response)
		return
	}
	if err := ctl.ingredientService.Delete(request.Request.Context(), id); err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	response.WriteHeader(http.StatusNoContent)
}
