package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/AravindhGoutham/NetMan/common"
	"github.com/AravindhGoutham/NetMan/snmp"
)

var debug bool
var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "netman",
	Short: "netman polls a router fleet over SNMP for interface addresses and link state, and samples CPU utilization",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			log.SetLevel(log.TraceLevel)
			log.Info("Debug mode enabled")
		}
		log.Infof("Starting %v version %v by %v", common.AppName, common.AppVersion, common.AppAuthor)
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceUsage = true
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "show debug messages")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (defaults only if empty)")
}

// loadConfig loads the main config, then the credentials and devices it points to.
func loadConfig() (*common.Config, error) {
	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := config.LoadCredentials(); err != nil {
		return nil, err
	}
	if err := config.LoadDevices(); err != nil {
		return nil, err
	}
	return config, nil
}

func newPoller(config *common.Config) snmp.Poller {
	return snmp.NewGoSNMPPoller(config.Credentials, config.SNMPTimeout(), config.SNMPRetries)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
