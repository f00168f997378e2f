package depth

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/seqcover/seqcover/artifact"
	"github.com/seqcover/seqcover/coverage"
	"golang.org/x/exp/slices"
)

// mosdepth read exclusion: unmapped, mate unmapped, secondary, qc fail, duplicate.
const excludeFlags int = 1804

// DepthThresholds is the fixed depth ladder reported for coverage regions.
var DepthThresholds = []int{1, 5, 10, 20, 50, 100, 250, 500, 1000, 5000, 10000, 50000}

// QuantizeSpec maps depth ranges to named buckets.
type QuantizeSpec struct {
	Breaks string   // mosdepth break string, e.g. "0:1:4:"
	Labels []string // one label per bucket, index matching the break ranges
}

// CallableQuantize buckets depth into NO_COVERAGE [0,1), LOW_COVERAGE
// [1,minDepth) and CALLABLE [minDepth,inf).
func CallableQuantize(minDepth int) QuantizeSpec {
	return QuantizeSpec{
		Breaks: fmt.Sprintf("0:1:%d:", minDepth),
		Labels: []string{"NO_COVERAGE", "LOW_COVERAGE", "CALLABLE"},
	}
}

// TargetSpec names one depth computation target. Targets with an empty
// RegionBed are skipped entirely.
type TargetSpec struct {
	Name       string
	RegionBed  string
	Quantize   *QuantizeSpec
	Thresholds []int
}

// Bundle holds the artifact paths of one mosdepth invocation. Dist is always
// produced; the rest are empty unless the corresponding input was supplied.
type Bundle struct {
	Dist       string // depth distribution table
	PerBase    string // per-base depth bed.gz
	Regions    string // per-region mean depth bed.gz
	Quantized  string // quantized callability bed.gz
	Thresholds string // bases above each threshold per region, bed.gz
}

// runCommand executes an assembled external command. A package variable so
// tests can substitute a stub for the mosdepth binary.
var runCommand = func(cmd *exec.Cmd) error {
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// RunMosdepth produces the depth artifact bundle for one target, skipping
// the invocation when the distribution file is already fresh relative to the
// alignment file. Outputs are staged in a transaction and only renamed to
// their final paths after mosdepth exits cleanly, so a failed run leaves no
// partial artifacts. A mapping quality floor is applied whenever per-base or
// quantized output is requested, since those views are sensitive to
// multi-mapping noise.
func RunMosdepth(ctx *coverage.Context, targetName, bedFile string, perBase bool, quantize *QuantizeSpec, thresholds []int) Bundle {
	workDir := artifact.SafeMkdir(filepath.Join(ctx.WorkDir, "coverage", ctx.Sample))
	prefix := filepath.Join(workDir, ctx.Sample+"-"+targetName)

	var out Bundle
	out.Dist = prefix + ".mosdepth.dist.txt"
	if perBase {
		out.PerBase = prefix + ".per-base.bed.gz"
	}
	if bedFile != "" {
		out.Regions = prefix + ".regions.bed.gz"
	}
	if quantize != nil {
		out.Quantized = prefix + ".quantized.bed.gz"
	}
	if len(thresholds) > 0 {
		out.Thresholds = prefix + ".thresholds.bed.gz"
	}
	if artifact.UpToDate(out.Dist, ctx.Bam) {
		return out
	}

	tx := artifact.Begin(workDir)
	defer tx.Discard()
	for _, final := range []string{out.Dist, out.PerBase, out.Regions, out.Quantized, out.Thresholds} {
		if final != "" {
			tx.Stage(final)
		}
	}
	txPrefix := filepath.Join(tx.Dir(), ctx.Sample+"-"+targetName)

	args := []string{"-t", strconv.Itoa(ctx.Cores), "-F", strconv.Itoa(excludeFlags)}
	if perBase || quantize != nil {
		args = append(args, "-Q", "1")
	}
	if !perBase {
		args = append(args, "--no-per-base")
	}
	if bedFile != "" {
		args = append(args, "--by", bedFile)
	}
	if quantize != nil {
		args = append(args, "--quantize", quantize.Breaks)
	}
	if len(thresholds) > 0 {
		sorted := slices.Clone(thresholds)
		slices.Sort(sorted)
		ts := make([]string, len(sorted))
		for i := range sorted {
			ts[i] = strconv.Itoa(sorted[i])
		}
		args = append(args, "-T", strings.Join(ts, ","))
	}
	args = append(args, txPrefix, ctx.Bam)

	cmd := exec.Command("mosdepth", args...)
	cmd.Env = os.Environ()
	if quantize != nil {
		// bucket labels ride along as environment variables, the side channel
		// mosdepth uses to name quantized ranges
		for i, label := range quantize.Labels {
			cmd.Env = append(cmd.Env, fmt.Sprintf("MOSDEPTH_Q%d=%s", i, label))
		}
	}
	log.Printf("calculating coverage: %s %s\n", ctx.Sample, targetName)
	err := runCommand(cmd)
	if err != nil {
		log.Panicf("ERROR: mosdepth failed for %s %s: %v\n", ctx.Sample, targetName, err)
	}
	tx.Commit()
	return out
}
