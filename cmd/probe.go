package main

import (
	"fmt"
	"log/slog"

	"github.com/cwbudde/gpuradixsort/internal/sortcl"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Calibrate the sorter against the default device and report the chosen subgroup width",
	Long: `Opens the default OpenCL device, runs the subgroup-width calibration
ladder against it, and reports the width the hardware settled on. Useful for
confirming a device builds and sorts correctly before running a benchmark.`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	rt, err := sortcl.InitOpenCL()
	if err != nil {
		return fmt.Errorf("failed to initialize OpenCL: %w", err)
	}
	defer rt.Close()

	fmt.Printf("Device: %s (%s)\n", rt.Device.Name, rt.Device.Vendor)

	sorter, err := sortcl.New(rt)
	if err != nil {
		return fmt.Errorf("calibration failed: %w", err)
	}
	defer sorter.Close()

	slog.Info("radixsort calibrated", "subgroup_width", sorter.SubgroupWidth())
	fmt.Printf("Chosen subgroup width: %d\n", sorter.SubgroupWidth())

	return nil
}
