// Package tasks is the client of the to-do list service.
package tasks

import (
	"context"
	"net/url"
	"strings"

	"github.com/felixgeelhaar/todoask/internal/apiclient"
	apperrors "github.com/felixgeelhaar/todoask/internal/errors"
)

// Task is one to-do item as the service stores it.
type Task struct {
	ID        string `json:"_id" yaml:"id"`
	Task      string `json:"task" yaml:"task"`
	Completed bool   `json:"completed" yaml:"completed"`
}

// payload is the body of create and update requests.
type payload struct {
	Task      string `json:"task"`
	Completed bool   `json:"completed"`
}

// API is the subset of apiclient.Client the service needs.
type API interface {
	Get(ctx context.Context, endpoint string) apiclient.Result
	Post(ctx context.Context, endpoint string, body any) apiclient.Result
	Put(ctx context.Context, endpoint string, body any) apiclient.Result
	Delete(ctx context.Context, endpoint string) apiclient.Result
}

// Service talks to the task service at baseURL.
type Service struct {
	api     API
	baseURL string
}

// NewService creates a task service client.
func NewService(api API, baseURL string) *Service {
	return &Service{api: api, baseURL: strings.TrimRight(baseURL, "/")}
}

// List fetches every task. The typed slice is only set on success.
func (s *Service) List(ctx context.Context) ([]Task, apiclient.Result, error) {
	res := s.api.Get(ctx, s.baseURL+"/tasks")
	if !res.OK() {
		return nil, res, res.Err()
	}

	var tasks []Task
	if res.Data != nil {
		if err := res.Decode(&tasks); err != nil {
			return nil, res, err
		}
	}
	return tasks, res, nil
}

// Create adds an incomplete task with the given text.
func (s *Service) Create(ctx context.Context, text string) (*Task, apiclient.Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apiclient.Result{}, apperrors.NewInputRequiredError("task text")
	}

	res := s.api.Post(ctx, s.baseURL+"/tasks", payload{Task: text, Completed: false})
	if !res.OK() {
		return nil, res, res.Err()
	}

	created := &Task{Task: text}
	if res.Data != nil {
		if err := res.Decode(created); err != nil {
			return nil, res, err
		}
	}
	return created, res, nil
}

// SetCompleted marks task as completed or not.
func (s *Service) SetCompleted(ctx context.Context, task Task, completed bool) (*Task, apiclient.Result, error) {
	if task.ID == "" {
		return nil, apiclient.Result{}, apperrors.NewInputRequiredError("task id")
	}

	task.Completed = completed
	res := s.api.Put(ctx, s.taskURL(task.ID), payload{Task: task.Task, Completed: completed})
	if !res.OK() {
		return nil, res, res.Err()
	}

	updated := task
	if res.Data != nil {
		if err := res.Decode(&updated); err != nil {
			return nil, res, err
		}
	}
	return &updated, res, nil
}

// Delete removes the task with the given id.
func (s *Service) Delete(ctx context.Context, id string) (apiclient.Result, error) {
	if id == "" {
		return apiclient.Result{}, apperrors.NewInputRequiredError("task id")
	}

	res := s.api.Delete(ctx, s.taskURL(id))
	return res, res.Err()
}

// Find returns the task whose id equals ref or starts with it. The prefix
// must be unambiguous.
func Find(tasks []Task, ref string) (Task, error) {
	var match *Task
	for i := range tasks {
		t := &tasks[i]
		if t.ID == ref {
			return *t, nil
		}
		if ref != "" && strings.HasPrefix(t.ID, ref) {
			if match != nil {
				return Task{}, apperrors.New(apperrors.ErrCodeInputInvalid, "ambiguous task id: "+ref).
					WithSuggestion("Use more characters of the id shown by 'todoask tasks list'")
			}
			match = t
		}
	}
	if match == nil {
		return Task{}, apperrors.New(apperrors.ErrCodeInputInvalid, "no task with id: "+ref).
			WithSuggestion("Run 'todoask tasks list' to see task ids")
	}
	return *match, nil
}

func (s *Service) taskURL(id string) string {
	return s.baseURL + "/tasks/" + url.PathEscape(id)
}
