package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/todobot/internal/common"
	"github.com/dmitrijs2005/todobot/internal/render"
	"github.com/dmitrijs2005/todobot/internal/services"
)

// Console runs commands against the services as one user at a time.
type Console struct {
	user        string
	tasks       *services.TaskService
	tz          *services.TimezoneService
	assignments *services.AssignmentService
}

func NewConsole(user string, tasks *services.TaskService, tz *services.TimezoneService, as *services.AssignmentService) *Console {
	return &Console{user: user, tasks: tasks, tz: tz, assignments: as}
}

func (c *Console) User() string { return c.user }

func (c *Console) SwitchUser(_ context.Context, args string) error {
	u := strings.TrimSpace(args)
	if u == "" {
		printlnFn("Usage: user <id>")
		return nil
	}
	c.user = u
	printlnFn("Now acting as " + u + ".")
	return nil
}

func (c *Console) Add(ctx context.Context, args string) error {
	name, date := splitDateFlag(args)
	if name == "" {
		printlnFn("Usage: add <name> [-d YYYY-MM-DD|days]")
		return nil
	}
	task, err := c.tasks.AddTask(ctx, c.user, name, date)
	if err != nil {
		return c.report(err)
	}
	printlnFn(render.Added(task, c.tasks.Today(ctx, c.user)))
	return nil
}

func (c *Console) Complete(ctx context.Context, args string) error {
	res, err := c.tasks.CompleteFromInput(ctx, c.user, args)
	if err != nil {
		return c.report(err)
	}
	printlnFn(render.Completed(res.Succeeded, res.NotFound))
	return nil
}

func (c *Console) Tasks(ctx context.Context) error {
	tasks, today, err := c.tasks.Top(ctx, c.user)
	if err != nil {
		return c.report(err)
	}
	printlnFn(strings.TrimRight(render.Top(tasks, today), "\n"))
	return nil
}

func (c *Console) AllTasks(ctx context.Context) error {
	tasks, today, err := c.tasks.All(ctx, c.user)
	if err != nil {
		return c.report(err)
	}
	for _, msg := range render.All(tasks, today, common.MessageLimit) {
		printlnFn(strings.TrimRight(msg, "\n"))
	}
	return nil
}

func (c *Console) GetTask(ctx context.Context) error {
	task, today, err := c.tasks.Focus(ctx, c.user)
	if errors.Is(err, common.ErrNoTasks) {
		printlnFn(render.NoFocus)
		return nil
	}
	if err != nil {
		return c.report(err)
	}
	printlnFn(render.Focus(task, today))
	return nil
}

func (c *Console) Remove(ctx context.Context, args string) error {
	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil || id < 1 {
		printlnFn("Usage: remove <id>")
		return nil
	}
	if err := c.tasks.Remove(ctx, c.user, id); err != nil {
		return c.report(err)
	}
	printlnFn(fmt.Sprintf("Removed task %d.", id))
	return nil
}

func (c *Console) Purge(ctx context.Context) error {
	n, err := c.tasks.Purge(ctx, c.user)
	if err != nil {
		return c.report(err)
	}
	printlnFn(fmt.Sprintf("Purged %d completed task(s).", n))
	return nil
}

func (c *Console) Timezone(ctx context.Context, args string) error {
	name, err := c.tz.Set(ctx, c.user, args)
	if err != nil {
		return c.report(err)
	}
	printlnFn("Your timezone has been set to " + name + ".")
	return nil
}

func (c *Console) Give(ctx context.Context, args string) error {
	recipient, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	name, date := splitDateFlag(rest)
	if recipient == "" || name == "" {
		printlnFn("Usage: give <user> <name> [-d YYYY-MM-DD|days]")
		return nil
	}
	a, _, err := c.assignments.Give(ctx, c.user, recipient, name, date)
	if err != nil {
		return c.report(err)
	}
	printlnFn(fmt.Sprintf("Offered **%s** to %s (assignment %s).", a.Name, a.Recipient, a.ID))
	return nil
}

func (c *Console) Pending(ctx context.Context) error {
	list := c.assignments.Pending(ctx, c.user)
	if len(list) == 0 {
		printlnFn("No pending assignments.")
		return nil
	}
	today := c.tasks.Today(ctx, c.user)
	for _, a := range list {
		printlnFn(render.Assignment(a, today))
	}
	return nil
}

func (c *Console) Accept(ctx context.Context, args string) error {
	task, err := c.assignments.Accept(ctx, c.user, strings.TrimSpace(args))
	if err != nil {
		return c.report(err)
	}
	printlnFn(render.Added(task, c.tasks.Today(ctx, c.user)))
	return nil
}

func (c *Console) Decline(ctx context.Context, args string) error {
	if err := c.assignments.Decline(ctx, c.user, strings.TrimSpace(args)); err != nil {
		return c.report(err)
	}
	printlnFn("Declined.")
	return nil
}

// report prints a user-facing message for err and returns it.
func (c *Console) report(err error) error {
	switch {
	case errors.Is(err, common.ErrInvalidDate):
		printlnFn("Invalid date format. Please use YYYY-MM-DD or a number of days.")
	case errors.Is(err, common.ErrInvalidTimezone):
		printlnFn("Invalid timezone. Please provide a valid timezone like 'America/New_York' or 'EST'.")
	case errors.Is(err, common.ErrInvalidTaskID):
		printlnFn("Invalid task ID. Please provide valid numbers separated by commas.")
	case errors.Is(err, common.ErrEmptyName):
		printlnFn("Task name must not be empty.")
	case errors.Is(err, common.ErrSelfAssignment):
		printlnFn("You cannot give a task to yourself.")
	case errors.Is(err, common.ErrNotRecipient):
		printlnFn("Only the recipient can answer that assignment.")
	case errors.Is(err, common.ErrAssignmentExpired):
		printlnFn("That assignment has expired.")
	case errors.Is(err, common.ErrAssignmentClosed):
		printlnFn("That assignment was already answered.")
	case errors.Is(err, common.ErrNotFound):
		printlnFn("Not found.")
	default:
		printlnFn("Error: " + err.Error())
	}
	return err
}

// splitDateFlag separates "name words -d date" into the name and the date.
func splitDateFlag(args string) (name, date string) {
	fields := strings.Fields(args)
	var words []string
	for i := 0; i < len(fields); i++ {
		if (fields[i] == "-d" || fields[i] == "--date") && i+1 < len(fields) {
			date = fields[i+1]
			i++
			continue
		}
		words = append(words, fields[i])
	}
	return strings.Join(words, " "), date
}
