package controllers

import (
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"foodgram/auth"
	"foodgram/config"
	"foodgram/media"
	"foodgram/services"

	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

// Accounts is what the auth filters need from the user store.
type Accounts interface {
	auth.UserLookup
	auth.PermissionChecker
}

// Guard bundles the authentication filters shared by the web services.
type Guard struct {
	accounts Accounts
}

func NewGuard(accounts Accounts) *Guard {
	return &Guard{accounts: accounts}
}

// Required rejects anonymous requests.
func (g *Guard) Required() restful.FilterFunction {
	return auth.AuthFilter(g.accounts)
}

// Optional identifies the user when a token is sent.
func (g *Guard) Optional() restful.FilterFunction {
	return auth.OptionalAuthFilter(g.accounts)
}

// Can must follow Required.
func (g *Guard) Can(permissions ...string) restful.FilterFunction {
	return auth.RequirePermissions(g.accounts, permissions...)
}

// Page is the paginated list envelope.
type Page struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

const maxOffset = math.MaxInt32

type pageRequest struct {
	page  int
	limit int
}

func (p pageRequest) offset() int { return (p.page - 1) * p.limit }

// readPage parses ?page and ?limit. Bad values fall back to the defaults,
// limit is capped at the configured maximum and page so that the offset
// stays below maxOffset.
func readPage(request *restful.Request, cfg config.PaginationConfig) pageRequest {
	p := pageRequest{page: 1, limit: cfg.DefaultLimit}
	if n, err := strconv.Atoi(request.QueryParameter("limit")); err == nil && n > 0 {
		p.limit = min(n, cfg.MaxLimit)
	}
	if n, err := strconv.Atoi(request.QueryParameter("page")); err == nil && n > 0 {
		// page*limit must not overflow; pages that far out are empty anyway.
		p.page = min(n, maxOffset/p.limit)
	}
	return p
}

// newPage builds the envelope with absolute links to the neighbour pages.
func newPage(request *restful.Request, p pageRequest, total int64, results any) Page {
	page := Page{Count: total, Results: results}
	if int64(p.page*p.limit) < total {
		page.Next = pageLink(request.Request, p.page+1)
	}
	if p.page > 1 {
		page.Previous = pageLink(request.Request, p.page-1)
	}
	return page
}

func pageLink(r *http.Request, page int) *string {
	u := url.URL{Scheme: "http", Host: r.Host, Path: r.URL.Path}
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		u.Scheme = "https"
	}
	q := r.URL.Query()
	if page == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	link := u.String()
	return &link
}

// pathID reads a numeric path parameter. The routes constrain it to digits,
// so only overflow can fail here.
func pathID(request *restful.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(request.PathParameter(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// viewerID is the authenticated user, or zero for anonymous requests.
func viewerID(request *restful.Request) uint {
	id, _ := auth.UserID(request)
	return id
}

func writeDetail(response *restful.Response, status int, message string) {
	_ = response.WriteHeaderAndJson(status, map[string]string{"detail": message}, restful.MIME_JSON)
}

func writeNotFound(response *restful.Response) {
	writeDetail(response, http.StatusNotFound, "Not found.")
}

// MaxBodyBytes caps request bodies. It leaves room for a base64 encoded
// image of media.MaxImageBytes.
const MaxBodyBytes = media.MaxImageBytes/3*4 + 1<<20

// readBody decodes the JSON body into entity. It answers 413 when the body
// is too large and 400 on any other failure.
func readBody(request *restful.Request, response *restful.Response, entity any) bool {
	request.Request.Body = http.MaxBytesReader(response.ResponseWriter, request.Request.Body, MaxBodyBytes)
	if err := request.ReadEntity(entity); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(response, http.StatusRequestEntityTooLarge, "Request body too large.")
			return false
		}
		writeDetail(response, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return false
	}
	return true
}

// handleServiceError translates service errors to HTTP responses. Anything
// unexpected is logged and answered with a generic 500.
func handleServiceError(log *zap.Logger, request *restful.Request, response *restful.Response, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		_ = response.WriteHeaderAndJson(http.StatusBadRequest, ve.Fields, restful.MIME_JSON)
	case errors.Is(err, services.ErrAlreadyExists),
		errors.Is(err, services.ErrSelfSubscription),
		errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInUse):
		_ = response.WriteHeaderAndJson(http.StatusBadRequest, map[string]string{"errors": err.Error()}, restful.MIME_JSON)
	case errors.Is(err, services.ErrUnauthorized), errors.Is(err, services.ErrUserBlocked):
		writeDetail(response, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrForbidden):
		writeDetail(response, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrNotFound):
		writeNotFound(response)
	default:
		log.Error("Unhandled service error",
			zap.String("method", request.Request.Method),
			zap.String("path", request.Request.URL.Path),
			zap.Error(err))
		writeDetail(response, http.StatusInternalServerError, "An internal error occurred")
	}
}
