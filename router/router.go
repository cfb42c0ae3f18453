// Package router adds optional HTTP-style path routing in front of a
// fcgi.Handler, the Go-idiomatic rendering of the predecessor server's
// matchit-backed router: method + path pattern registration with
// {param} segment capture and trailing wildcard capture, dispatched to a
// callback that receives the matched route parameters.
//
// Since go-chi/chi/v5's matcher is built around net/http, Router bridges
// each incoming fcgi.Request through a synthetic *http.Request just far
// enough to reuse chi's trie matching and named-parameter extraction,
// then calls back into ordinary fcgi types. No net/http round trip ever
// leaves the process.
package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gophpeek/fcgisrv"
)

// Params holds the route parameters matched for one request: named
// segments ({id}) and, if the pattern ends in a wildcard, the remainder
// under the key "*" (mirroring the predecessor router's {*rest} capture).
type Params map[string]string

// HandlerFunc handles one routed request, given the route parameters
// matched against its registered pattern.
type HandlerFunc func(req *fcgi.Request, params Params) *fcgi.Response

// Router dispatches requests to registered method+pattern routes and
// implements fcgi.Handler, so it can be installed as a Server's top-level
// handler or composed as a fallback behind another one.
type Router struct {
	mux *chi.Mux
}

// New returns an empty Router.
func New() *Router {
	return &Router{mux: chi.NewRouter()}
}

type contextKey int

const (
	requestKey contextKey = iota
	resultKey
)

// Register binds method and pattern (a chi pattern: "/widgets/{id}",
// "/assets/*") to handler. Registering the same method+pattern again
// replaces the earlier handler, the same as chi.Mux.Method.
func (r *Router) Register(method, pattern string, handler HandlerFunc) {
	r.mux.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, hr *http.Request) {
		req, _ := hr.Context().Value(requestKey).(*fcgi.Request)
		out, _ := hr.Context().Value(resultKey).(**fcgi.Response)

		params := Params{}
		rctx := chi.RouteContext(hr.Context())
		if rctx != nil {
			for i, key := range rctx.URLParams.Keys {
				params[key] = rctx.URLParams.Values[i]
			}
			if wild := rctx.URLParam("*"); wild != "" {
				params["*"] = wild
			}
		}

		*out = handler(req, params)
	}))
}

// ServeFastCGI matches req.Method and req.Path against the registered
// routes. If nothing matches, it returns nil (not a 404 Response), so a
// Router can be composed as a fallback ahead of another fcgi.Handler, the
// same optionality the predecessor server's route table exposes via
// Option<Response>.
func (r *Router) ServeFastCGI(req *fcgi.Request) *fcgi.Response {
	target := req.Path
	if req.QueryString != "" {
		target += "?" + req.QueryString
	}
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}

	httpReq := httptest.NewRequest(req.Method, target, nil)

	var result *fcgi.Response
	ctx := context.WithValue(httpReq.Context(), requestKey, req)
	ctx = context.WithValue(ctx, resultKey, &result)

	rec := httptest.NewRecorder()
	r.mux.ServeHTTP(rec, httpReq.WithContext(ctx))

	return result
}
