package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ftl/wsqso/core/rx"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "list the available audio capture devices",
	RunE:  runWithCtx(listDevices),
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func listDevices(_ context.Context, _ *cobra.Command, _ []string) error {
	devices, err := rx.ListDevices()
	if err != nil {
		return err
	}
	return writeDevices(os.Stdout, devices)
}

func writeDevices(w io.Writer, devices []rx.DeviceDescription) error {
	if len(devices) == 0 {
		fmt.Fprintln(w, "no capture devices found")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tname\tid")
	for _, device := range devices {
		marker := ""
		if device.IsDefault {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", marker, device.Name, device.ID)
	}
	return tw.Flush()
}
