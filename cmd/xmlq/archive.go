package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/hengadev/xmlcodec"
	s3bucket "github.com/hengadev/xmlcodec/providers/s3"
	"github.com/spf13/cobra"
)

func newArchiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "archive ID",
		Short: "Upload a stored document to the S3 archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.S3Bucket == "" {
				return fmt.Errorf("%w: %s is not set", xmlcodec.ErrInvalidConfiguration, xmlcodec.EnvS3Bucket)
			}
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid document id %q: %w", args[0], err)
			}

			s, done, err := a.openStore(false)
			if err != nil {
				return err
			}
			defer done()
			ctx := commandContext(cmd)
			doc, err := s.Get(ctx, id)
			if err != nil {
				return err
			}

			archiver, err := s3bucket.NewArchiverFromConfig(ctx, a.cfg.AWSRegion, a.cfg.S3Bucket, a.cfg.S3Prefix, a.logger)
			if err != nil {
				return err
			}
			key, err := archiver.Archive(ctx, doc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "s3://%s/%s\n", a.cfg.S3Bucket, key)
			return nil
		},
	}
}
