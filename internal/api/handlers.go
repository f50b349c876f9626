package api

import (
	"errors"
	"net/http"
	"strconv"

	restful "github.com/emicklei/go-restful/v3"

	"github.com/dmitrijs2005/todobot/internal/common"
	"github.com/dmitrijs2005/todobot/internal/logging"
	"github.com/dmitrijs2005/todobot/internal/models"
	"github.com/dmitrijs2005/todobot/internal/render"
)

type handler struct {
	deps Deps
	log  logging.Logger
}

type addTaskRequest struct {
	Name string `json:"name"`
	Due  string `json:"due"`
}

type completeRequest struct {
	IDs string `json:"ids"`
}

type timezoneRequest struct {
	Timezone string `json:"timezone"`
}

type giveRequest struct {
	Recipient string `json:"recipient"`
	Name      string `json:"name"`
	Due       string `json:"due"`
}

type decisionRequest struct {
	Token  string `json:"token"`
	Accept bool   `json:"accept"`
}

type taskResponse struct {
	Task *models.Task `json:"task"`
	Text string       `json:"text"`
}

type listResponse struct {
	Today    string        `json:"today"`
	Tasks    []models.Task `json:"tasks"`
	Messages []string      `json:"messages"`
}

type completeResponse struct {
	Succeeded []int64 `json:"succeeded"`
	NotFound  []int64 `json:"not_found"`
	Text      string  `json:"text"`
}

type giveResponse struct {
	Assignment models.Assignment `json:"assignment"`
	Token      string            `json:"token"`
}

type decisionResponse struct {
	Assignment models.Assignment `json:"assignment"`
	Task       *models.Task      `json:"task,omitempty"`
}

func (h *handler) readBody(req *restful.Request, resp *restful.Response, v any) bool {
	if err := req.ReadEntity(v); err != nil {
		writeError(resp, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

func (h *handler) addTask(req *restful.Request, resp *restful.Response) {
	var body addTaskRequest
	if !h.readBody(req, resp, &body) {
		return
	}
	ctx := req.Request.Context()
	user := req.PathParameter("user")

	task, err := h.deps.Tasks.AddTask(ctx, user, body.Name, body.Due)
	if err != nil {
		h.fail(req, resp, err)
		return
	}
	today := h.deps.Tasks.Today(ctx, user)
	_ = resp.WriteHeaderAndEntity(http.StatusCreated, taskResponse{Task: &task, Text: render.Added(task, today)})
}

func (h *handler) topTasks(req *restful.Request, resp *restful.Response) {
	tasks, today, err := h.deps.Tasks.Top(req.Request.Context(), req.PathParameter("user"))
	if err != nil {
		h.fail(req, resp, err)
		return
	}
	_ = resp.WriteEntity(listResponse{
		Today:    today.String(),
		Tasks:    nonNil(tasks),
		Messages: []string{render.Top(tasks, today)},
	})
}

func (h *handler) allTasks(req *restful.Request, resp *restful.Response) {
	tasks, today, err := h.deps.Tasks.All(req.Request.Context(), req.PathParameter("user"))
	if err != nil {
		h.fail(req, resp, err)
		return
	}
	_ = resp.WriteEntity(listResponse{
		Today:    today.String(),
		Tasks:    nonNil(tasks),
		Messages: render.All(tasks, today, common.MessageLimit),
	})
}

func (h *handler) focus(req *restful.Request, resp *restful.Response) {
	task, today, err := h.deps.Tasks.Focus(req.Request.Context(), req.PathParameter("user"))
	if errors.Is(err, common.ErrNoTasks) {
		_ = resp.WriteEntity(taskResponse{Text: render.NoFocus})
		return
	}
	if err != nil {
		h.fail(req, resp, err)
		return
	}
	_ = resp.WriteEntity(taskResponse{Task: &task, Text: render.Focus(task, today)})
}

func (h *handler) complete(req *restful.Request, resp *restful.Response) {
	var body completeRequest
	if !h.readBody(req, resp, &body) {
		return
	}
	res, err := h.deps.Tasks.CompleteFromInput(req.Request.Context(), req.PathParameter("user"), body.IDs)
	if err != nil {
		h.fail(req, resp, err)
		return
	}
	_ = resp.WriteEntity(completeResponse{
		Succeeded: nonNilIDs(res.Succeeded),
		NotFound:  nonNilIDs(res.NotFound),
		Text:      render.Completed(res.Succeeded, res.NotFound),
	})
}

func (h *handler) purge(req *restful.Request, resp *restful.Response) {
	n, err := h.deps.Tasks.Purge(req.Request.Context(), req.PathParameter("user"))
	if err != nil {
		h.fail(req, resp, err)
		return
	}
	_ = resp.WriteEntity(map[string]int{"purged": n})
}

func (h *handler) remove(req *restful.Request, resp *restful.Response) {
	id, err := strconv.ParseInt(req.PathParameter("id"), 10, 64)
	if err != nil || id < 1 {
		writeError(resp, http.StatusBadRequest, common.ErrInvalidTaskID.Error())
		return
	}
	if err := h.deps.Tasks.Remove(req.Request.Context(), req.PathParameter("user"), id); err != nil {
		h.fail(req, resp, err)
		return
	}
	resp.WriteHeader(http.StatusNoContent)
}

func (h *handler) setTimezone(req *restful.Request, resp *restful.Response) {
	var body timezoneRequest
	if !h.readBody(req, resp, &body) {
		return
	}
	name, err := h.deps.Timezones.Set(req.Request.Context(), req.PathParameter("user"), body.Timezone)
	if err != nil {
		h.fail(req, resp, err)
		return
	}
	_ = resp.WriteEntity(timezoneRequest{Timezone: name})
}

func (h *handler) give(req *restful.Request, resp *restful.Response) {
	var body giveRequest
	if !h.readBody(req, resp, &body) {
		return
	}
	a, token, err := h.deps.Assignments.Give(req.Request.Context(), req.PathParameter("user"), body.Recipient, body.Name, body.Due)
	if err != nil {
		h.fail(req, resp, err)
		return
	}
	_ = resp.WriteHeaderAndEntity(http.StatusCreated, giveResponse{Assignment: a, Token: token})
}

func (h *handler) pending(req *restful.Request, resp *restful.Response) {
	list := h.deps.Assignments.Pending(req.Request.Context(), req.PathParameter("user"))
	if list == nil {
		list = []models.Assignment{}
	}
	_ = resp.WriteEntity(list)
}

func (h *handler) accept(req *restful.Request, resp *restful.Response) {
	ctx := req.Request.Context()
	id := req.PathParameter("id")
	task, err := h.deps.Assignments.Accept(ctx, actorFrom(req), id)
	if err != nil {
		h.fail(req, resp, err)
		return
	}
	a, _ := h.deps.Assignments.Get(id)
	_ = resp.WriteEntity(decisionResponse{Assignment: a, Task: &task})
}

func (h *handler) decline(req *restful.Request, resp *restful.Response) {
	id := req.PathParameter("id")
	if err := h.deps.Assignments.Decline(req.Request.Context(), actorFrom(req), id); err != nil {
		h.fail(req, resp, err)
		return
	}
	a, _ := h.deps.Assignments.Get(id)
	_ = resp.WriteEntity(decisionResponse{Assignment: a})
}

func (h *handler) decide(req *restful.Request, resp *restful.Response) {
	var body decisionRequest
	if !h.readBody(req, resp, &body) {
		return
	}
	a, task, err := h.deps.Assignments.Decide(req.Request.Context(), actorFrom(req), body.Token, body.Accept)
	if err != nil {
		h.fail(req, resp, err)
		return
	}
	_ = resp.WriteEntity(decisionResponse{Assignment: a, Task: task})
}

func (h *handler) inbox(req *restful.Request, resp *restful.Response) {
	if h.deps.Inbox == nil {
		writeError(resp, http.StatusNotFound, "inbox disabled")
		return
	}
	msgs := h.deps.Inbox.Messages(req.PathParameter("user"))
	if msgs == nil {
		msgs = []models.Notification{}
	}
	_ = resp.WriteEntity(msgs)
}

func nonNil(tasks []models.Task) []models.Task {
	if tasks == nil {
		return []models.Task{}
	}
	return tasks
}

func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
