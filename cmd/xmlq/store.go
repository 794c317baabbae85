package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/hengadev/xmlcodec/docstore"
	"github.com/spf13/cobra"
)

func newStoreCmd(a *app) *cobra.Command {
	var sealed bool
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage stored documents",
	}
	cmd.PersistentFlags().BoolVar(&sealed, "sealed", false, "use the Vault store instead of the local database")

	put := &cobra.Command{
		Use:   "put FILE",
		Short: "Check a quiz document and store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, body, err := a.loadQuiz(args[0])
			if err != nil {
				return err
			}
			doc, err := docstore.FromXML(body)
			if err != nil {
				return err
			}
			s, done, err := a.openStore(sealed)
			if err != nil {
				return err
			}
			defer done()
			if err := s.Put(commandContext(cmd), doc); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), doc.ID)
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Print a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid document id %q: %w", args[0], err)
			}
			s, done, err := a.openStore(sealed)
			if err != nil {
				return err
			}
			defer done()
			doc, err := s.Get(commandContext(cmd), id)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(doc.Body)
			return err
		},
	}

	var tag string
	ls := &cobra.Command{
		Use:   "ls",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, done, err := a.openStore(sealed)
			if err != nil {
				return err
			}
			defer done()
			docs, err := s.List(commandContext(cmd), tag)
			if err != nil {
				return err
			}
			for _, d := range docs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tv%d\t%s\n", d.ID, d.Tag, d.Version, d.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
	ls.Flags().StringVar(&tag, "tag", "", "only list documents with this root tag")

	rm := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid document id %q: %w", args[0], err)
			}
			s, done, err := a.openStore(sealed)
			if err != nil {
				return err
			}
			defer done()
			return s.Delete(commandContext(cmd), id)
		},
	}

	cmd.AddCommand(put, get, ls, rm)
	return cmd
}
