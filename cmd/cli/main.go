package main

import (
	"log"
	"os"

	"github.com/absmach/shapley"
	"github.com/absmach/shapley/cli"
	"github.com/absmach/shapley/pkg/sdk"
	"github.com/spf13/cobra"
)

const defConfigPath = "shapley.toml"

func main() {
	var (
		configPath      string
		attributorURL   string
		tlsVerification bool
	)

	rootCmd := &cobra.Command{
		Use:   "shapley-cli",
		Short: "Shapley attribution CLI",
		Long:  `Shapley attribution CLI computes contribution scores offline and talks to the attributor service.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			url := shapley.DefAttributorURL
			if _, err := os.Stat(configPath); err == nil {
				cfg, err := shapley.LoadConfig(configPath)
				if err != nil {
					log.Fatal(err)
				}
				url = cfg.Attributor.URL
			}
			if attributorURL != "" {
				url = attributorURL
			}

			cli.SetSDK(sdk.NewSDK(sdk.Config{
				AttributorURL:   url,
				TLSVerification: tlsVerification,
			}))
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "cli-config", defConfigPath, "CLI configuration file")
	rootCmd.PersistentFlags().StringVarP(&attributorURL, "attributor-url", "u", "", "attributor service URL")
	rootCmd.PersistentFlags().BoolVar(&tlsVerification, "tls-verification", false, "verify attributor TLS certificates")

	rootCmd.AddCommand(
		cli.NewComputeCmd(),
		cli.NewRoundsCmd(),
		cli.NewAttributeCmd(),
		cli.NewConfigCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
