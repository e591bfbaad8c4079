package commands

import (
	"github.com/spf13/cobra"
)

// NewBucketsCommand creates the buckets command.
func NewBucketsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "buckets",
		Short: "List buckets in the datastore",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			buckets, err := cmdCtx.DS.Buckets(cmd.Context())
			if err != nil {
				return err
			}
			return renderBuckets(cmd.OutOrStdout(), buckets, cmdCtx.Cfg.Output)
		},
	}
}
