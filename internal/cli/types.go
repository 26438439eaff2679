package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/objstore/internal/typetag"
)

// TypeInfo describes a registered record or key type.
type TypeInfo struct {
	Tag    string `json:"tag"`
	GoType string `json:"go_type"`
}

// NewTypesCommand creates the types command.
func NewTypesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List registered type tags",
		Long: `List every registered type with its qualified tag. The origin part of
each tag follows the origin set in the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			entries := typetag.Entries()
			infos := make([]TypeInfo, len(entries))
			for i, e := range entries {
				infos[i] = TypeInfo{Tag: e.Tag.String(), GoType: e.Type.String()}
			}
			return formatter.Success(infos, func(w io.Writer) {
				for _, info := range infos {
					fmt.Fprintf(w, "%-28s %s\n", info.Tag, info.GoType)
				}
			})
		},
	}
}
