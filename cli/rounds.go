package cli

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/absmach/shapley/attributor"
	"github.com/absmach/shapley/pkg/attribution"
	"github.com/absmach/shapley/pkg/sdk"
	"github.com/absmach/supermq/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	defOffset uint64 = 0
	defLimit  uint64 = 10

	errInvalidRound   = errors.New("invalid round index")
	errInvalidPage    = errors.New("invalid offset or limit")
	errReadingRequest = errors.New("failed to read round request")
)

var asdk sdk.SDK

func SetSDK(s sdk.SDK) {
	asdk = s
}

func NewRoundsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rounds [list|view]",
		Short: "Attribution rounds",
		Long:  `List and view attribution records stored by the attributor.`,
	}

	listCmd := &cobra.Command{
		Use:   "list [offset] [limit]",
		Short: "List records",
		Long:  `List attribution records ordered by round and method.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) > 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			offset, limit := defOffset, defLimit
			var err error
			if len(args) > 0 {
				if offset, err = strconv.ParseUint(args[0], 10, 64); err != nil {
					logErrorCmd(*cmd, errors.Wrap(errInvalidPage, err))

					return
				}
			}
			if len(args) > 1 {
				if limit, err = strconv.ParseUint(args[1], 10, 64); err != nil {
					logErrorCmd(*cmd, errors.Wrap(errInvalidPage, err))

					return
				}
			}

			page, err := asdk.ListRecords(offset, limit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view <round> [method]",
		Short: "View round",
		Long: `View every record of a round, or a single method's record.

Examples:
  shapley-cli rounds view 3
  shapley-cli rounds view 3 optimal_lambda`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 1 || len(args) > 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			round, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				logErrorCmd(*cmd, errors.Wrap(errInvalidRound, err))

				return
			}

			if len(args) == 1 {
				res, err := asdk.GetRound(round)
				if err != nil {
					logErrorCmd(*cmd, err)

					return
				}
				logJSONCmd(*cmd, res)

				return
			}

			method, err := attribution.ParseMethod(args[1])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			rec, err := asdk.GetRecord(round, method)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, rec)
		},
	}

	cmd.AddCommand(listCmd, viewCmd)

	return cmd
}

func NewAttributeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attribute <request.json>",
		Short: "Submit round",
		Long:  `Submit a round request file to the attributor and print the stored records.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				logErrorCmd(*cmd, errors.Wrap(errReadingRequest, err))

				return
			}
			var req attributor.RoundRequest
			if err := json.Unmarshal(data, &req); err != nil {
				logErrorCmd(*cmd, errors.Wrap(errReadingRequest, err))

				return
			}

			res, err := asdk.Attribute(req)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, res)
		},
	}
}
