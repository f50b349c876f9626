package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	restful "github.com/emicklei/go-restful/v3"
)

// HeaderUserID names the user acting on an assignment.
const HeaderUserID = "X-User-ID"

type ctxKey string

const actorKey ctxKey = "actor"

func actorFilter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	actor := strings.TrimSpace(req.HeaderParameter(HeaderUserID))
	if actor == "" {
		writeError(resp, http.StatusUnauthorized, "missing "+HeaderUserID)
		return
	}
	req.Request = req.Request.WithContext(context.WithValue(req.Request.Context(), actorKey, actor))
	chain.ProcessFilter(req, resp)
}

func actorFrom(req *restful.Request) string {
	v, _ := req.Request.Context().Value(actorKey).(string)
	return v
}

func (h *handler) logFilter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	start := time.Now()
	chain.ProcessFilter(req, resp)
	h.log.Debug(req.Request.Context(), "request",
		"method", req.Request.Method,
		"path", req.Request.URL.Path,
		"status", resp.StatusCode(),
		"took", time.Since(start).String())
}
