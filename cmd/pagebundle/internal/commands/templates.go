package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/wolfeidau/pagebundle/internal/logger"
	"github.com/wolfeidau/pagebundle/internal/templates"
)

const templateSyntaxNote = "Templates render as Go html/template: {{ }} actions run, EJS <% %> tags are copied verbatim."

type TemplatesCmd struct {
	Env EnvironmentFlags `embed:""`
}

func (c *TemplatesCmd) Run(ctx context.Context, globals *Globals) error {
	logger.Setup(globals.Debug)
	return c.print(os.Stdout)
}

func (c *TemplatesCmd) print(w io.Writer) error {
	env, err := c.Env.Environment()
	if err != nil {
		return err
	}

	mappings, err := templates.Discover(env.Paths.Source)
	if err != nil {
		return err
	}

	if len(mappings) == 0 {
		fmt.Fprintf(w, "No templates found in %s\n", env.Paths.Source)
		return nil
	}

	for _, m := range mappings {
		fmt.Fprintf(w, "%s -> %s (chunk: %s)\n", m.Input, m.Output, m.Chunk())
	}
	fmt.Fprintln(w, templateSyntaxNote)
	return nil
}
