package main

import (
	"fmt"

	"github.com/cwbudde/gpuradixsort/internal/sortcl"
	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List OpenCL platforms and devices available to the sorter",
	RunE:  runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	platforms, err := sortcl.EnumeratePlatforms()
	if err != nil {
		return fmt.Errorf("failed to enumerate OpenCL platforms: %w", err)
	}

	if len(platforms) == 0 {
		fmt.Println("No OpenCL platforms found.")
		return nil
	}

	for _, p := range platforms {
		fmt.Printf("Platform: %s (%s, %s)\n", p.Name, p.Vendor, p.Version)
		for _, d := range p.Devices {
			fmt.Printf("  - [%s] %s (%s), %d compute units\n", d.Type, d.Name, d.Vendor, d.MaxComputeUnits)
		}
	}

	return nil
}
