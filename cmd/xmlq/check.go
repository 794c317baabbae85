package main

import (
	"fmt"

	"github.com/hengadev/xmlcodec"
	"github.com/spf13/cobra"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE...",
		Short: "Check that quiz documents load",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				q, _, err := a.loadQuiz(path)
				if err != nil {
					failed++
					if p := xmlcodec.ErrorPath(err); p != "" {
						fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s at %s: %v\n", path, p, err)
					} else {
						fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %v\n", err)
					}
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s: %q, %d questions, %d points\n",
					path, q.Title, len(q.Questions), q.MaxPoints())
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents failed", failed, len(args))
			}
			return nil
		},
	}
}
