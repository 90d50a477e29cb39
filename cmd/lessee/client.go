package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/tphummel/lessee/internal/apiclient"
	"github.com/tphummel/lessee/internal/models"
)

// addURLFlag registers --url, which overrides LESSEE_URL.
func addURLFlag(cmd *cobra.Command) *string {
	var url string
	cmd.PersistentFlags().StringVar(&url, "url", "", "Base URL of the lessee API (default $LESSEE_URL or http://localhost:8080)")
	return &url
}

func newClient(url string) (*apiclient.Client, error) {
	if url != "" {
		return apiclient.NewClient(url), nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return apiclient.NewClient(cfg.URL), nil
}

func newPlatformsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "platforms",
		Short: "List platforms",
		Args:  cobra.NoArgs,
	}
	url := addURLFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		client, err := newClient(*url)
		if err != nil {
			return err
		}
		platforms, err := client.ListPlatforms(commandContext(cmd))
		if err != nil {
			return err
		}
		tw := newTable(cmd.OutOrStdout(), "ID", "NAME")
		for _, p := range platforms {
			row(tw, p.ID, p.Name)
		}
		return tw.Flush()
	}
	return cmd
}

func newHardwareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hardware",
		Short: "List and add hardware units",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	url := addURLFlag(cmd)
	cmd.AddCommand(newHardwareListCommand(url))
	cmd.AddCommand(newHardwareAddCommand(url))
	return cmd
}

func newHardwareListCommand(url *string) *cobra.Command {
	var platform string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List hardware with current availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(*url)
			if err != nil {
				return err
			}
			hardware, err := client.ListHardware(commandContext(cmd), platform)
			if err != nil {
				return err
			}
			return printHardware(cmd.OutOrStdout(), hardware)
		},
	}
	cmd.Flags().StringVar(&platform, "platform", "", "Only list hardware of this platform ID")
	return cmd
}

func newHardwareAddCommand(url *string) *cobra.Command {
	var in apiclient.HardwareInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a hardware unit to a platform",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(*url)
			if err != nil {
				return err
			}
			h, err := client.CreateHardware(commandContext(cmd), in)
			if err != nil {
				return err
			}
			return printHardware(cmd.OutOrStdout(), []models.HardwareDetail{*h})
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "Unique hardware name")
	cmd.Flags().StringVar(&in.Address, "address", "", "Unique IP address")
	cmd.Flags().StringVar(&in.Platform, "platform", "", "Platform ID")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("address")
	_ = cmd.MarkFlagRequired("platform")
	return cmd
}

func newLeasesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leases",
		Short: "List and create leases",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	url := addURLFlag(cmd)
	cmd.AddCommand(newLeasesListCommand(url))
	cmd.AddCommand(newLeasesCreateCommand(url))
	return cmd
}

func newLeasesListCommand(url *string) *cobra.Command {
	var active bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List leases, latest end first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(*url)
			if err != nil {
				return err
			}
			leases, err := client.ListLeases(commandContext(cmd), active)
			if err != nil {
				return err
			}
			return printLeases(cmd.OutOrStdout(), leases)
		},
	}
	cmd.Flags().BoolVar(&active, "active", false, "Only list leases that are active now")
	return cmd
}

func newLeasesCreateCommand(url *string) *cobra.Command {
	var (
		platform string
		duration time.Duration
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Lease the first available unit of a platform",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			minutes := int(duration / time.Minute)
			if minutes <= 0 || duration%time.Minute != 0 {
				return fmt.Errorf("--duration must be a positive whole number of minutes, got %s", duration)
			}
			client, err := newClient(*url)
			if err != nil {
				return err
			}
			l, err := client.CreateLease(commandContext(cmd), platform, minutes)
			if err != nil {
				return err
			}
			return printLeases(cmd.OutOrStdout(), []models.LeaseDetail{*l})
		},
	}
	cmd.Flags().StringVar(&platform, "platform", "", "Platform ID")
	cmd.Flags().DurationVar(&duration, "duration", 20*time.Minute, "Lease length, in whole minutes")
	_ = cmd.MarkFlagRequired("platform")
	return cmd
}

func printHardware(w io.Writer, hardware []models.HardwareDetail) error {
	tw := newTable(w, "ID", "NAME", "ADDRESS", "PLATFORM", "STATUS")
	for _, h := range hardware {
		row(tw, h.ID, h.Name, h.Address, h.Platform.Name, string(h.Status))
	}
	return tw.Flush()
}

func printLeases(w io.Writer, leases []models.LeaseDetail) error {
	tw := newTable(w, "ID", "HARDWARE", "ADDRESS", "PLATFORM", "START", "END", "ACTIVE")
	for _, l := range leases {
		row(tw, l.ID, l.Hardware.Name, l.Hardware.Address, l.Hardware.Platform.Name,
			l.Start.Format(time.RFC3339), l.End.Format(time.RFC3339), strconv.FormatBool(l.Active))
	}
	return tw.Flush()
}

func newTable(w io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row(tw, headers...)
	return tw
}

func row(tw *tabwriter.Writer, cols ...string) {
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)
}
