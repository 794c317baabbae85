package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/hengadev/xmlcodec/quiz"
	"github.com/spf13/cobra"
)

func newFmtCmd(a *app) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "fmt FILE",
		Short: "Rewrite a quiz document in canonical form",
		Long: `fmt loads a quiz document and writes it back through the engine.
Members equal to their defaults are dropped and indentation follows the
configured indent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, _, err := a.loadQuiz(args[0])
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := quiz.Save(a.engine, &buf, q); err != nil {
				return err
			}
			if !write {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(args[0], buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", args[0], err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result to the file instead of stdout")
	return cmd
}
