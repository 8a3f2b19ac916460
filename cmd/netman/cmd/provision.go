package cmd

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/AravindhGoutham/NetMan/provisioning"
)

var planPath string
var sshTimeout time.Duration

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "configure DHCP pools on a router over SSH and print the resulting bindings",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}
		plan, err := provisioning.LoadPlan(planPath)
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		provisioner := provisioning.NewProvisioner(provisioning.SSHDialer{Timeout: sshTimeout}, config, nil)
		result, err := provisioner.Provision(ctx, plan)
		if err != nil {
			return err
		}
		for _, line := range result.ConfigOutput {
			log.Debugf("Config output: %v", line)
		}
		for _, address := range result.Bindings {
			log.WithFields(log.Fields{
				"server_address": result.ServerAddress,
				"address":        address,
			}).Info("DHCP client")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(provisionCmd)
	provisionCmd.Flags().StringVarP(&planPath, "plan", "p", "dhcp_plan.json", "provisioning plan file path")
	provisionCmd.Flags().DurationVarP(&sshTimeout, "timeout", "", 10*time.Second, "SSH connection timeout")
}
