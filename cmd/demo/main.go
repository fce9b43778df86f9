// Command demo runs a small task manager exposed through modgate.
//
// Try it:
//
//	demo scan
//	demo export -format openapi
//	MODGATE_EXPLORER_EXECUTE=true demo serve
package main

import (
	"context"
	"os"
	"sort"
	"sync"

	"github.com/modgate/modgate/pkg/api"
	"github.com/modgate/modgate/pkg/cli"
	"github.com/modgate/modgate/pkg/routes"
)

type task struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Done        bool   `json:"done"`
}

type taskCreate struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Done        bool   `json:"done"`
}

type taskUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Done        *bool   `json:"done"`
}

// store is an in-memory task store seeded with sample data.
type store struct {
	mu     sync.Mutex
	tasks  map[int]task
	nextID int
}

func newStore() *store {
	return &store{
		tasks: map[int]task{
			1: {ID: 1, Title: "Try modgate", Description: "Run the demo", Done: false},
			2: {ID: 2, Title: "Connect an MCP client", Description: "Use Claude Desktop", Done: false},
		},
		nextID: 3,
	}
}

// List all tasks.
func (s *store) listTasks(ctx context.Context) ([]task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Create a new task.
func (s *store) createTask(ctx context.Context, body taskCreate) (task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := task{ID: s.nextID, Title: body.Title, Description: body.Description, Done: body.Done}
	s.tasks[t.ID] = t
	s.nextID++
	return t, nil
}

// Get a task by its ID.
func (s *store) getTask(ctx context.Context, taskID int) (task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return task{}, api.NewNotFoundError("task not found")
	}
	return t, nil
}

// Update an existing task.
func (s *store) updateTask(ctx context.Context, taskID int, body taskUpdate) (task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return task{}, api.NewNotFoundError("task not found")
	}
	if body.Title != nil {
		t.Title = *body.Title
	}
	if body.Description != nil {
		t.Description = *body.Description
	}
	if body.Done != nil {
		t.Done = *body.Done
	}
	s.tasks[taskID] = t
	return t, nil
}

// Delete a task permanently.
func (s *store) deleteTask(ctx context.Context, taskID int) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[taskID]; !ok {
		return nil, api.NewNotFoundError("task not found")
	}
	delete(s.tasks, taskID)
	return map[string]any{"deleted": true}, nil
}

// Return summary statistics about all tasks.
func (s *store) taskStats(ctx context.Context) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	done := 0
	for _, t := range s.tasks {
		if t.Done {
			done++
		}
	}
	total := len(s.tasks)
	return map[string]any{"total": total, "done": done, "pending": total - done}, nil
}

func table(s *store) routes.Table {
	const pkg = "demo/tasks"
	return routes.Table{
		{
			Rule:    "/tasks",
			Methods: []string{"GET"},
			Group:   "tasks",
			Handler: routes.Handler{Func: s.listTasks, Name: "list_tasks", Package: pkg,
				Doc: "List all tasks."},
		},
		{
			Rule:    "/tasks",
			Methods: []string{"POST"},
			Group:   "tasks",
			Handler: routes.Handler{Func: s.createTask, Name: "create_task", Package: pkg,
				Doc: "Create a new task.", Params: []string{"body"}},
		},
		{
			Rule:    "/tasks/<int:task_id>",
			Methods: []string{"GET"},
			Group:   "tasks",
			Handler: routes.Handler{Func: s.getTask, Name: "get_task", Package: pkg,
				Doc: "Get a task by its ID.", Params: []string{"task_id"}},
		},
		{
			Rule:    "/tasks/<int:task_id>",
			Methods: []string{"PUT"},
			Group:   "tasks",
			Handler: routes.Handler{Func: s.updateTask, Name: "update_task", Package: pkg,
				Doc: "Update an existing task.", Params: []string{"task_id", "body"}},
		},
		{
			Rule:    "/tasks/<int:task_id>",
			Methods: []string{"DELETE"},
			Group:   "tasks",
			Handler: routes.Handler{Func: s.deleteTask, Name: "delete_task", Package: pkg,
				Doc: "Delete a task permanently.", Params: []string{"task_id"}},
		},
		{
			Rule:    "/stats",
			Methods: []string{"GET"},
			Group:   "tasks",
			Handler: routes.Handler{Func: s.taskStats, Name: "task_stats", Package: pkg,
				Doc: "Return summary statistics about all tasks."},
		},
	}
}

func main() {
	os.Exit(cli.Main(table(newStore())))
}
