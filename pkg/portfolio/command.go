package portfolio

// Command is one operation selected on the command line. Parse returns it alongside the
// shared Config, and Main dispatches it to the matching App method.
//
// Current command implementations:
//   - [MigrateCommand]: create or update the schema
//   - [RunCommand]: serve the HTTP API
//   - [CleanupCommand]: cascade-delete one record from the command line
type Command interface {
	// Name returns the sub-command name.
	Name() string
}

// MigrateCommand creates or updates the table schema. It is safe to run repeatedly.
//
//	portfolio migrate
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string {
	return "migrate"
}

// RunCommand starts the HTTP server and blocks until its context is cancelled.
//
//	portfolio run --port 8080
type RunCommand struct{}

func (c *RunCommand) Name() string {
	return "run"
}

// CleanupCommand deletes one record with its descendants and files, the same way the
// admin delete button does. It exists for records the dashboard can no longer show.
//
//	portfolio cleanup pa_categories 5f0c...
type CleanupCommand struct {
	Collection string
	ID         string
}

func (c *CleanupCommand) Name() string {
	return "cleanup"
}
