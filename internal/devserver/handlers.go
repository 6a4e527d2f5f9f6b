package devserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/felixgeelhaar/todoask/internal/health"
)

const defaultModel = "gpt-4"

type taskRequest struct {
	Task      string `json:"task"`
	Completed bool   `json:"completed"`
}

type askRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
}

type detail struct {
	Detail string `json:"detail"`
}

type message struct {
	Message string `json:"message"`
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.tasks.List(r.Context())
	if err != nil {
		s.storeFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) addTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Task) == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "task is required")
		return
	}

	t, err := s.tasks.Add(r.Context(), req.Task, req.Completed)
	if err != nil {
		s.storeFailed(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "task added", "id", t.ID, "username", Username(r.Context()))
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid task body")
		return
	}

	found, err := s.tasks.Update(r.Context(), chi.URLParam(r, "id"), req.Task, req.Completed)
	if err != nil {
		s.storeFailed(w, r, err)
		return
	}
	if !found {
		writeDetail(w, http.StatusNotFound, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Task updated successfully"})
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	found, err := s.tasks.Remove(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeFailed(w, r, err)
		return
	}
	if !found {
		writeDetail(w, http.StatusNotFound, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Task removed successfully"})
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "prompt is required")
		return
	}
	if req.Model == "" {
		req.Model = defaultModel
	}

	answer, err := s.answerer.Answer(r.Context(), req.Prompt, req.Model)
	if err != nil {
		s.logger.WithError(err).ErrorContext(r.Context(), "answer failed", "model", req.Model)
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": strings.TrimSpace(answer)})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeProbe(w, s.probes.Liveness(r.Context()))
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	writeProbe(w, s.probes.Readiness(r.Context()))
}

func writeProbe(w http.ResponseWriter, result *health.ProbeResult) {
	status := http.StatusOK
	if result.Status != health.StatusHealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, result)
}

func (s *Server) storeFailed(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.WithError(err).ErrorContext(r.Context(), "task store failed")
	writeDetail(w, http.StatusInternalServerError, "Task store unavailable")
}

func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, detail{Detail: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
