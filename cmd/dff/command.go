package main

import (
	"github.com/devplayg/gofriend/dff"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dff <root>",
		Short: "dff - Duplicate file finder",
		Long: `dff searches a directory tree for files with identical contents and reports
the file with the most copies and the group that takes the most space.

Usage examples:

1. Search the current directory:

	dff .

2. Compare through cached digests with four workers:

	dff --digest --workers 4 /home/data
`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := dff.LoadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			config.Root = args[0]

			finder := dff.NewDuplicateFileFinder(afero.NewOsFs(), *config)
			finder.Init(config.Verbose)
			return finder.Start(cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.BoolP("verbose", "v", dff.DefaultConfig.Verbose, "Verbose")
	flags.Bool("digest", dff.DefaultConfig.Digest, "Skip full comparisons of files whose digests differ")
	flags.Int("workers", dff.DefaultConfig.Workers, "Concurrent comparisons per size group")
	flags.Int64P("min-size", "s", dff.DefaultConfig.MinFileSize, "Minimum file size to consider")
	flags.Bool("no-color", dff.DefaultConfig.NoColor, "Disable colored output")

	return cmd
}
