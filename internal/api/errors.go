package api

import (
	"errors"
	"net/http"

	restful "github.com/emicklei/go-restful/v3"

	"github.com/dmitrijs2005/todobot/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidDate),
		errors.Is(err, common.ErrInvalidTimezone),
		errors.Is(err, common.ErrEmptyName),
		errors.Is(err, common.ErrInvalidTaskID),
		errors.Is(err, common.ErrSelfAssignment):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrNotRecipient):
		return http.StatusForbidden
	case errors.Is(err, common.ErrAssignmentExpired):
		return http.StatusGone
	case errors.Is(err, common.ErrAssignmentClosed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(resp *restful.Response, status int, msg string) {
	_ = resp.WriteHeaderAndEntity(status, errorResponse{Error: msg})
}

// fail logs unexpected errors and hides their text from the client.
func (h *handler) fail(req *restful.Request, resp *restful.Response, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error(req.Request.Context(), "request failed", "path", req.Request.URL.Path, "error", err)
		writeError(resp, status, "internal error")
		return
	}
	writeError(resp, status, err.Error())
}
