package cmd

import (
	"fmt"

	"github.com/dendrascience/wadfs/wad"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// mapLumps are the members of a map group, in the order the engine expects.
var mapLumps = []string{
	"THINGS", "LINEDEFS", "SIDEDEFS", "VERTEXES", "SEGS",
	"SSECTORS", "NODES", "SECTORS", "REJECT", "BLOCKMAP",
}

const (
	maxSeedMaps      = 81
	maxSeedLumps     = 1_000_000
	lumpsPerSeedDir  = 1000
	seedPayloadUUIDs = 50
)

// NewSeedCmd creates and returns the seed subcommand for the wadfs CLI.
// It generates an archive with many lumps for exercising mounts and tools.
func NewSeedCmd() *cobra.Command {
	var (
		outputPath string
		lumpCount  int
		mapCount   int
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate a test archive with many lumps",
		Long: `Generate a WAD archive for testing wadfs.

Creates map groups E1M1, E1M2, ... with ten member lumps each, followed by
namespaces 00, 01, ... holding up to 1000 lumps apiece. Each lump contains a
single UUID line drawn from a small pool, so content repeats across lumps.
A few lumps in every namespace are left empty.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			lumps, err := seedLumps(lumpCount, mapCount)
			if err != nil {
				return err
			}
			if err := wad.Create(outputPath, "PWAD", lumps); err != nil {
				return err
			}
			if verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s with %d descriptors (%d maps, %d lumps)\n",
					outputPath, len(lumps), mapCount, lumpCount)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Path to output archive (required)")
	cmd.Flags().IntVarP(&lumpCount, "count", "c", 10000, "Number of namespaced lumps to generate")
	cmd.Flags().IntVarP(&mapCount, "maps", "m", 9, "Number of map groups to generate")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	cmd.MarkFlagRequired("output")

	return cmd
}

func seedLumps(lumpCount, mapCount int) ([]wad.Lump, error) {
	if mapCount < 0 || mapCount > maxSeedMaps {
		return nil, fmt.Errorf("maps must be between 0 and %d", maxSeedMaps)
	}
	if lumpCount < 0 || lumpCount > maxSeedLumps {
		return nil, fmt.Errorf("count must be between 0 and %d", maxSeedLumps)
	}

	pool := make([][]byte, seedPayloadUUIDs)
	for i := range pool {
		pool[i] = []byte(uuid.New().String() + "\n")
	}

	var lumps []wad.Lump
	for m := range mapCount {
		lumps = append(lumps, wad.Lump{Name: fmt.Sprintf("E%dM%d", m/9+1, m%9+1)})
		for i, name := range mapLumps {
			lumps = append(lumps, wad.Lump{Name: name, Data: pool[(m+i)%len(pool)]})
		}
	}

	for start := 0; start < lumpCount; start += lumpsPerSeedDir {
		dir := seedDirName(start / lumpsPerSeedDir)
		lumps = append(lumps, wad.Lump{Name: dir + "_START"})
		for i := start; i < min(start+lumpsPerSeedDir, lumpCount); i++ {
			lump := wad.Lump{Name: fmt.Sprintf("L%06d", i)}
			if i%97 != 0 {
				lump.Data = pool[i%len(pool)]
			}
			lumps = append(lumps, lump)
		}
		lumps = append(lumps, wad.Lump{Name: dir + "_END"})
	}
	return lumps, nil
}

const seedDirAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// seedDirName returns a two-character base-36 namespace name.
func seedDirName(k int) string {
	n := len(seedDirAlphabet)
	return string([]byte{seedDirAlphabet[k/n%n], seedDirAlphabet[k%n]})
}
