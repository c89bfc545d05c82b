package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/absmach/shapley"
	"github.com/absmach/supermq/pkg/errors"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

const defConfigPath = "shapley.toml"

var (
	errConfigExists = errors.New("configuration file already exists")
	errConfigForm   = errors.New("failed to read configuration")
	errSavingConfig = errors.New("failed to save configuration")
	errNotPositive  = errors.New("value must be a positive integer")
)

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config [init]",
		Short: "Configuration",
		Long:  `Create the TOML configuration used by compute and the CLI.`,
	}

	var force, defaults bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create configuration",
		Long:  `Interactively create a configuration file, shapley.toml by default.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) > 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}
			path := defConfigPath
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				logErrorCmd(*cmd, errors.Wrap(errConfigExists, fmt.Errorf("%s", path)))

				return
			}

			cfg := shapley.DefaultConfig()
			if !defaults {
				if err := configForm(&cfg).Run(); err != nil {
					logErrorCmd(*cmd, errors.Wrap(errConfigForm, err))

					return
				}
			}

			if err := shapley.SaveConfig(path, cfg); err != nil {
				logErrorCmd(*cmd, errors.Wrap(errSavingConfig, err))

				return
			}
			logSuccessCmd(*cmd, "Configuration written to "+path)
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	initCmd.Flags().BoolVar(&defaults, "defaults", false, "write the defaults without prompting")

	cmd.AddCommand(initCmd)

	return cmd
}

func configForm(cfg *shapley.Config) *huh.Form {
	partitions := strconv.Itoa(cfg.Attribution.NumPartitions)
	samples := strconv.Itoa(cfg.Attribution.OptimalLambdaSamples)

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Attributor URL").
				Value(&cfg.Attributor.URL),
			huh.NewInput().
				Title("Channel ID").
				Value(&cfg.Attributor.ChannelID),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Compute exact Shapley values?").
				Value(&cfg.Attribution.Exact),
			huh.NewConfirm().
				Title("Compute constant lambda approximation?").
				Value(&cfg.Attribution.ConstLambda),
			huh.NewConfirm().
				Title("Compute optimal lambda approximation?").
				Value(&cfg.Attribution.OptimalLambda),
			huh.NewConfirm().
				Title("Use previous round accuracy for the empty coalition?").
				Value(&cfg.Attribution.PreviousRoundAccForEmptySubset),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Number of partitions").
				Value(&partitions).
				Validate(positiveInt(&cfg.Attribution.NumPartitions)),
			huh.NewInput().
				Title("Optimal lambda samples").
				Value(&samples).
				Validate(positiveInt(&cfg.Attribution.OptimalLambdaSamples)),
		),
	)
}

// positiveInt validates s and stores it in dst.
func positiveInt(dst *int) func(string) error {
	return func(s string) error {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			return errNotPositive
		}
		*dst = v

		return nil
	}
}
