package controllers

import (
	"net/http"

	"foodgram/models"
	"foodgram/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

type TagController struct {
	tagService services.TagService
	guard      *Guard
	log        *zap.Logger
}

func NewTagController(tagService services.TagService, guard *Guard, log *zap.Logger) *TagController {
	return &TagController{tagService: tagService, guard: guard, log: log}
}

// RegisterRoutes sets up the tag routes. Reads are public, writes need
// tags:manage.
func (ctl *TagController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/api/tags").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	tags := []string{"tags"}
	tagID := ws.PathParameter("tag-id", "Identifier of the tag").DataType("integer")
	manage := ctl.guard.Can(models.PermTagsManage)

	ws.Route(ws.GET("").To(ctl.listHandler).
		Doc("List tags").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "Tags listed", []services.TagResponse{}))

	ws.Route(ws.GET("/{tag-id:[0-9]+}").To(ctl.getHandler).
		Doc("Get tag by ID").
		Param(tagID).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "Tag found", services.TagResponse{}).
		Returns(http.StatusNotFound, "Tag not found", nil))

	ws.Route(ws.POST("").Filter(ctl.guard.Required()).Filter(manage).To(ctl.createHandler).
		Doc("Create a tag").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.TagInput{}).
		Returns(http.StatusCreated, "Tag created", services.TagResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", nil).
		Returns(http.StatusForbidden, "Forbidden", nil))

	ws.Route(ws.PATCH("/{tag-id:[0-9]+}").Filter(ctl.guard.Required()).Filter(manage).To(ctl.updateHandler).
		Doc("Update a tag").
		Param(tagID).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.TagPatchInput{}).
		Returns(http.StatusOK, "Tag updated", services.TagResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", nil).
		Returns(http.StatusForbidden, "Forbidden", nil).
		Returns(http.StatusNotFound, "Tag not found", nil))

	ws.Route(ws.DELETE("/{tag-id:[0-9]+}").Filter(ctl.guard.Required()).Filter(manage).To(ctl.deleteHandler).
		Doc("Delete an unused tag").
		Param(tagID).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusNoContent, "Tag deleted", nil).
		Returns(http.StatusBadRequest, "Tag in use", nil).
		Returns(http.StatusForbidden, "Forbidden", nil).
		Returns(http.StatusNotFound, "Tag not found", nil))
}

func (ctl *TagController) listHandler(request *restful.Request, response *restful.Response) {
	list, err := ctl.tagService.List(request.Request.Context())
	if err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, list, restful.MIME_JSON)
}

func (ctl *TagController) getHandler(request *restful.Request, response *restful.Response) {
	id, ok := pathID(request, "tag-id")
	if !ok {
		writeNotFound(response)
		return
	}
	tag, err := ctl.tagService.Get(request.Request.Context(), id)
	if err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, tag, restful.MIME_JSON)
}

func (ctl *TagController) createHandler(request *restful.Request, response *restful.Response) {
	input := new(services.TagInput)
	if !readBody(request, response, input) {
		return
	}
	tag, err := ctl.tagService.Create(request.Request.Context(), input)
	if err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, tag, restful.MIME_JSON)
}

func (ctl *TagController) updateHandler(request *restful.Request, response *restful.Response) {
	id, ok := pathID(request, "tag-id")
	if !ok {
		writeNotFound(response)
		return
	}
	input := new(services.TagPatchInput)
	if !readBody(request, response, input) {
		return
	}
	tag, err := ctl.tagService.Update(request.Request.Context(), id, input)
	if err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, tag, restful.MIME_JSON)
}

func (ctl *TagController) deleteHandler(request *restful.Request, response *restful.Response) {
	id, ok := pathID(request, "tag-id")
	if !ok {
		writeNotFound(response)
		return
	}
	if err := ctl.tagService.Delete(request.Request.Context(), id); err != nil {
		handleServiceError(ctl.log, request, response, err)
		return
	}
	response.WriteHeader(http.StatusNoContent)
}
