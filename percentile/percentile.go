// Package percentile turns a mosdepth depth-distribution file into a
// percentage-of-bases-at-or-above-depth summary table for reporting.
package percentile

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/seqcover/seqcover/artifact"
	"github.com/seqcover/seqcover/coverage"
	"github.com/seqcover/seqcover/depth"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
)

// distRow is one genome-total line of a distribution file.
type distRow struct {
	count int
	pct   float64
}

// readTotals returns the synthetic "total" contig rows of a distribution
// file in file order. Per-contig rows are ignored.
func readTotals(distFile string) []distRow {
	var rows []distRow
	var col []string
	var count int
	var pct float64
	var err error
	for _, line := range fileio.Read(distFile) {
		col = strings.Fields(line)
		if len(col) != 3 || col[0] != "total" {
			continue
		}
		count, err = strconv.Atoi(col[1])
		exception.PanicOnErr(err)
		pct, err = strconv.ParseFloat(col[2], 64)
		exception.PanicOnErr(err)
		rows = append(rows, distRow{count: count, pct: pct})
	}
	return rows
}

// Calculate summarizes distFile as tab-separated rows of the percent of
// bases covered at or above each depth cutoff, returning the produced file
// paths. Returns nil when the distribution file does not exist, and does not
// regenerate an existing summary.
//
// One asymmetry is deliberate: when the smallest observed total depth still
// exceeds the minimum cutoff, an extra floor row for that cutoff is emitted
// carrying the smallest observed row's percentage. There is no analogous
// handling at the maximum; downstream consumers depend on this exact row set.
func Calculate(distFile string, cutoffs []int, ctx *coverage.Context) []string {
	if !artifact.Exists(distFile) {
		return nil
	}
	minCutoff, maxCutoff := cutoffs[0], cutoffs[0]
	for i := range cutoffs {
		if cutoffs[i] < minCutoff {
			minCutoff = cutoffs[i]
		}
		if cutoffs[i] > maxCutoff {
			maxCutoff = cutoffs[i]
		}
	}

	outTotalFile := appendStem(distFile, "_total_summary")
	if !artifact.Exists(outTotalFile) {
		tx := artifact.Begin(filepath.Dir(outTotalFile))
		defer tx.Discard()
		out := fileio.EasyCreate(tx.Stage(outTotalFile))
		fmt.Fprintf(out, "cutoff_reads\tbases_pct\tsample\n")
		var minSeen distRow
		var seenAny bool
		for _, row := range readTotals(distFile) {
			if !seenAny || row.count < minSeen.count {
				minSeen = row
				seenAny = true
			}
			if row.count >= minCutoff && row.count <= maxCutoff {
				fmt.Fprintf(out, "percentage%d\t%.1f\t%s\n", row.count, row.pct*100.0, ctx.Sample)
			}
		}
		if seenAny && minCutoff < minSeen.count {
			fmt.Fprintf(out, "percentage%d\t%.1f\t%s\n", minCutoff, minSeen.pct*100.0, ctx.Sample)
		}
		err := out.Close()
		exception.PanicOnErr(err)
		tx.Commit()
	}
	// duplicated under a fixed name for downstream report ingestion
	outTotalFixed := filepath.Join(filepath.Dir(outTotalFile), ctx.Sample+"_bcbio_coverage_avg.txt")
	artifact.Copy(outTotalFile, outTotalFixed)
	return []string{outTotalFixed}
}

// RegionDetailedStats copies the coverage target's depth artifacts into
// outDir and summarizes the distribution there, returning every produced or
// copied path. Returns nil when the target has no region artifact.
func RegionDetailedStats(ctx *coverage.Context, info depth.Bundle, outDir string) []string {
	if info.Regions == "" || !artifact.Exists(info.Regions) {
		return nil
	}
	artifact.SafeMkdir(outDir)
	outCovFile := filepath.Join(outDir, filepath.Base(info.Regions))
	outDistFile := filepath.Join(outDir, filepath.Base(info.Dist))
	if !artifact.UpToDate(outCovFile, info.Regions) {
		artifact.Copy(info.Regions, outCovFile)
		artifact.Copy(info.Dist, outDistFile)
	}
	outFiles := []string{outCovFile, outDistFile}
	if info.Thresholds != "" && artifact.Exists(info.Thresholds) {
		outThresholdsFile := filepath.Join(outDir, filepath.Base(info.Thresholds))
		if !artifact.UpToDate(outThresholdsFile, info.Thresholds) {
			artifact.Copy(info.Thresholds, outThresholdsFile)
		}
		outFiles = append(outFiles, outThresholdsFile)
	}
	return append(Calculate(outDistFile, depth.DepthThresholds, ctx), outFiles...)
}

// appendStem inserts stem before the final extension of path.
func appendStem(path, stem string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + stem + ext
}
