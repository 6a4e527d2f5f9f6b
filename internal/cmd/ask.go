package cmd

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/todoask/internal/ask"
	"github.com/felixgeelhaar/todoask/internal/ux"
)

func newAskCmd() *cobra.Command {
	var model string

	askCmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Ask the AI assistant a question",
		Long: `Send a prompt to the ask service and print the answer.

With no arguments the prompt is read from standard input.

Examples:
  todoask ask "Summarize my week"
  todoask ask --model gpt-4o "Plan a trip to Lisbon"
  echo "Write a haiku" | todoask ask`,
		RunE: instrument("ask", func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			prompt := strings.Join(args, " ")
			if prompt == "" {
				data, err := io.ReadAll(app.In)
				if err != nil {
					return err
				}
				prompt = string(data)
			}

			var reply *ask.Answer
			err = ux.Spin(app.ErrOut, app.Styles, "Thinking...", func() error {
				var askErr error
				reply, _, askErr = app.Ask.Ask(cmd.Context(), prompt, model)
				return askErr
			})
			if err != nil {
				return err
			}
			return app.Print(answer(*reply))
		}),
	}

	askCmd.Flags().StringVarP(&model, "model", "m", ask.DefaultModel, "model to ask")
	return askCmd
}
