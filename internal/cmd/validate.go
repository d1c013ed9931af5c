package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/dendrascience/wadfs/wad"
	"github.com/spf13/cobra"
)

// NewValidateCmd creates and returns the validate subcommand for the wadfs CLI.
// It reports structural anomalies found while loading archives.
func NewValidateCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "validate WAD...",
		Short: "Check WAD archives for structural anomalies",
		Long: `Check WAD archives for structural anomalies.

Reported problems include end markers with no open namespace, namespaces that
are never closed, map groups cut short, duplicate paths, lumps extending past
the end of the file and unknown magic. The command fails if any archive has
at least one anomaly.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	return cmd
}

func runValidate(cmd *cobra.Command, paths []string, verbose bool) error {
	w := cmd.OutOrStdout()
	var totalAnomalies, failed int

	for _, path := range paths {
		if verbose {
			fmt.Fprintf(w, "Validating archive: %s\n", path)
		}
		n, err := validateArchive(cmd, w, path)
		if err != nil {
			fmt.Fprintf(w, "Archive %s could not be opened: %v\n", path, err)
			failed++
			continue
		}
		if n > 0 {
			failed++
		} else if verbose {
			fmt.Fprintf(w, "Archive %s is valid\n", path)
		}
		totalAnomalies += n
	}

	fmt.Fprintf(w, "\nValidation complete:\n")
	fmt.Fprintf(w, "  Archives checked: %d\n", len(paths))
	fmt.Fprintf(w, "  Total anomalies: %d\n", totalAnomalies)

	if failed > 0 {
		return fmt.Errorf("%d of %d archives failed validation", failed, len(paths))
	}
	return nil
}

// validateArchive prints the anomalies of one archive and returns how many
// there were.
func validateArchive(cmd *cobra.Command, w io.Writer, path string) (int, error) {
	a, _, err := openArchive(cmd, path, true)
	var fe *wad.FormatError
	if errors.As(err, &fe) {
		// strict mode refused the archive; the anomalies are still reportable
		printAnomalies(w, path, fe.Anomalies)
		return len(fe.Anomalies), nil
	}
	if err != nil {
		return 0, err
	}
	defer a.Close()

	err = a.Verify()
	if errors.As(err, &fe) {
		printAnomalies(w, path, fe.Anomalies)
		return len(fe.Anomalies), nil
	}
	return 0, err
}

func printAnomalies(w io.Writer, path string, anomalies []wad.Anomaly) {
	fmt.Fprintf(w, "Archive %s has %d anomalies:\n", path, len(anomalies))
	for _, an := range anomalies {
		fmt.Fprintf(w, "  - %s\n", an)
	}
}
