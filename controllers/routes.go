package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"foodgram/config"
	"foodgram/media"
	"foodgram/metrics"
	"foodgram/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

// Deps is everything the HTTP layer is built from.
type Deps struct {
	Users         services.UserService
	Recipes       services.RecipeService
	Tags          services.TagService
	Ingredients   services.IngredientService
	Memberships   services.MembershipService
	Subscriptions services.SubscriptionService
	Admin         services.AdminService
	Accounts      Accounts
	Store         media.Store
	Pagination    config.PaginationConfig
	// Ping reports whether the database is reachable.
	Ping func(ctx context.Context) error
	Log  *zap.Logger
}

// NewContainer wires every web service, the ops endpoints and the
// container level filters.
func NewContainer(deps Deps) *restful.Container {
	container := restful.NewContainer()
	container.Router(restful.CurlyRouter{})
	container.ServiceErrorHandler(func(serviceErr restful.ServiceError, request *restful.Request, response *restful.Response) {
		writeDetail(response, serviceErr.Code, http.StatusText(serviceErr.Code))
	})
	container.Filter(AccessLog(deps.Log))
	container.Filter(metrics.Filter)

	guard := NewGuard(deps.Accounts)
	registrars := []interface{ RegisterRoutes(*restful.WebService) }{
		NewAuthController(deps.Users, guard, deps.Log),
		NewUserController(deps.Users, deps.Subscriptions, guard, deps.Pagination, deps.Log),
		NewTagController(deps.Tags, guard, deps.Log),
		NewIngredientController(deps.Ingredients, guard, deps.Log),
		NewRecipeController(deps.Recipes, deps.Memberships, guard, deps.Pagination, deps.Log),
		NewAdminController(deps.Admin, deps.Users, guard, deps.Pagination, deps.Log),
	}
	for _, r := range registrars {
		ws := new(restful.WebService)
		r.RegisterRoutes(ws)
		container.Add(ws)
	}

	health := new(restful.WebService)
	health.Path("/healthz").Produces(restful.MIME_JSON)
	health.Route(health.GET("").To(healthHandler(deps.Ping)).
		Doc("Liveness and database reachability").
		Returns(http.StatusOK, "Healthy", nil).
		Returns(http.StatusServiceUnavailable, "Database unreachable", nil))
	container.Add(health)

	// Built last so the document covers every service above.
	container.Add(restfulspec.NewOpenAPIService(restfulspec.Config{
		WebServices: container.RegisteredWebServices(),
		APIPath:     "/apidocs.json",
	}))

	container.Handle("/metrics", metrics.Handler())
	if local, ok := deps.Store.(*media.LocalStore); ok {
		container.Handle(local.Prefix(), local.Handler())
	}
	return container
}

func healthHandler(ping func(ctx context.Context) error) restful.RouteFunction {
	return func(request *restful.Request, response *restful.Response) {
		ctx, cancel := context.WithTimeout(request.Request.Context(), 2*time.Second)
		defer cancel()
		if err := ping(ctx); err != nil {
			_ = response.WriteHeaderAndJson(http.StatusServiceUnavailable,
				map[string]string{"status": "unavailable", "database": err.Error()}, restful.MIME_JSON)
			return
		}
		_ = response.WriteHeaderAndJson(http.StatusOK, map[string]string{"status": "ok"}, restful.MIME_JSON)
	}
}

// AccessLog logs every request after it was handled.
func AccessLog(logger *zap.Logger) restful.FilterFunction {
	return func(request *restful.Request, response *restful.Response, chain *restful.FilterChain) {
		startTime := time.Now()

		chain.ProcessFilter(request, response)

		logger.Info("Request",
			zap.String("client_ip", clientIP(request.Request)),
			zap.String("method", request.Request.Method),
			zap.Int("status_code", response.StatusCode()),
			zap.Duration("latency", time.Since(startTime)),
			zap.String("user_agent", request.Request.UserAgent()),
			zap.String("path", request.Request.URL.Path),
		)
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	return r.RemoteAddr
}
