// Package cache stores derived scalar coverage statistics per sample and
// target in small YAML files, so expensive averages survive across pipeline
// stages. A cache file that is not fresh relative to its dependencies is
// treated as absent, never as an error, and a miss rewrites the file whole.
package cache

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/seqcover/seqcover/artifact"
	"github.com/seqcover/seqcover/coverage"
	"github.com/seqcover/seqcover/depth"
	"github.com/seqcover/seqcover/ref"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"github.com/vertgenlab/gonomics/sam"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"
)

// maxSampledReads bounds the read-length sample used for the whole-genome
// coverage estimate.
const maxSampledReads int = 100000

// File returns the deterministic cache path for one (sample, target) pair.
func File(ctx *coverage.Context, targetName string) string {
	prefix := filepath.Join(artifact.SafeMkdir(filepath.Join(ctx.WorkDir, "align", ctx.Sample)),
		ctx.Sample+"-coverage")
	return prefix + "-" + targetName + "-stats.yaml"
}

// read returns the cached statistics if cacheFile is fresh relative to every
// dependency, otherwise an empty map. Unparseable files count as misses.
func read(cacheFile string, deps []string) map[string]int {
	stats := make(map[string]int)
	if !artifact.UpToDate(cacheFile, deps...) {
		return stats
	}
	data, err := os.ReadFile(cacheFile)
	if err != nil {
		return stats
	}
	if err = yaml.Unmarshal(data, &stats); err != nil {
		return map[string]int{}
	}
	return stats
}

// write replaces cacheFile with the full statistics map.
func write(stats map[string]int, cacheFile string) {
	data, err := yaml.Marshal(stats)
	exception.PanicOnErr(err)
	err = os.WriteFile(cacheFile, data, 0644)
	exception.PanicOnErr(err)
}

// GetAverageCoverage returns the sample's average depth over bedFile, or a
// whole-genome estimate when bedFile is empty, consulting the per-target
// cache first. depthFiles may carry already-computed artifact bundles from
// the depth orchestrator.
func GetAverageCoverage(ctx *coverage.Context, targetName, bedFile string, depthFiles map[string]depth.Bundle) int {
	cacheFile := File(ctx, targetName)
	stats := read(cacheFile, []string{ctx.Bam, bedFile})
	if avg, ok := stats["avg_coverage"]; ok {
		return avg
	}

	var avgCov float64
	if bedFile != "" {
		avgCov = averageBedCoverage(ctx, targetName, bedFile, depthFiles)
	} else {
		avgCov = averageGenomeCoverage(ctx)
	}
	stats["avg_coverage"] = int(avgCov)
	write(stats, cacheFile)
	return int(avgCov)
}

// averageBedCoverage computes the length-weighted mean depth over the
// regions of the per-region depth artifact. Depth is the last column.
func averageBedCoverage(ctx *coverage.Context, targetName, bedFile string, depthFiles map[string]depth.Bundle) float64 {
	depthFile := depth.RegionsCoverage(ctx, targetName, bedFile, depthFiles)
	var weighted float64
	var totalLen int
	var col []string
	var start, end int
	var d float64
	var err error
	file := fileio.EasyOpen(depthFile)
	for line, done := fileio.EasyNextRealLine(file); !done; line, done = fileio.EasyNextRealLine(file) {
		col = strings.Fields(line)
		if len(col) < 4 {
			continue
		}
		start, err = strconv.Atoi(col[1])
		exception.PanicOnErr(err)
		end, err = strconv.Atoi(col[2])
		exception.PanicOnErr(err)
		d, err = strconv.ParseFloat(col[len(col)-1], 64)
		exception.PanicOnErr(err)
		weighted += d * float64(end-start)
		totalLen += end - start
	}
	err = file.Close()
	exception.PanicOnErr(err)
	if totalLen == 0 {
		return 0
	}
	return weighted / float64(totalLen)
}

// idxstats runs samtools idxstats, a package variable so tests can stub the
// external binary.
var idxstats = func(bamFile string) ([]byte, error) {
	return exec.Command("samtools", "idxstats", bamFile).Output()
}

// averageGenomeCoverage estimates whole-genome coverage from index metadata
// and a bounded read-length sample, avoiding a full scan. Unlike the
// region-based path this deliberately includes duplicate reads.
func averageGenomeCoverage(ctx *coverage.Context) float64 {
	total := ref.TotalSize(ref.Contigs(ctx.RefFasta))
	if total == 0 {
		return 0
	}
	readCount := mappedReadCount(ctx.Bam)
	readLen := medianReadLength(ctx.Bam, maxSampledReads)
	return float64(readCount) * readLen / float64(total)
}

// mappedReadCount sums the mapped-read column of samtools idxstats.
func mappedReadCount(bamFile string) int {
	out, err := idxstats(bamFile)
	exception.PanicOnErr(err)
	var total, n int
	var col []string
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		col = strings.Split(line, "\t")
		if len(col) < 3 {
			continue
		}
		n, err = strconv.Atoi(col[2])
		exception.PanicOnErr(err)
		total += n
	}
	return total
}

// medianReadLength samples query lengths from the head of the alignment file.
func medianReadLength(bamFile string, maxReads int) float64 {
	reads, _ := sam.GoReadToChan(bamFile)
	var lengths []float64
	for r := range reads {
		lengths = append(lengths, float64(len(r.Seq)))
		if len(lengths) == maxReads {
			break
		}
	}
	if len(lengths) == 0 {
		return 0
	}
	slices.Sort(lengths)
	return stat.Quantile(0.5, stat.Empirical, lengths, nil)
}
