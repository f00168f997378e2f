// Package depth orchestrates the external mosdepth tool to produce the
// per-sample depth artifact bundle: depth distribution, per-region depth,
// quantized callability and threshold-crossing files. Invocations are
// freshness-gated against the alignment file and write through transactional
// staging so downstream steps never see partial output.
package depth

import (
	"path/filepath"
	"strings"

	"github.com/seqcover/seqcover/artifact"
	"github.com/seqcover/seqcover/coverage"
	"github.com/seqcover/seqcover/ref"
	"github.com/vertgenlab/gonomics/bed"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"github.com/vertgenlab/gonomics/interval"
)

// Calculate runs depth computation for every configured target of the sample
// and returns the final callable-region file plus the artifact bundle per
// target name. Targets without a region file are skipped. When the callable
// artifact is already fresh relative to the alignment file nothing is
// recomputed and the bundle map is empty.
func Calculate(ctx *coverage.Context) (string, map[string]Bundle) {
	variantRegions := ctx.VariantRegions
	if variantRegions == "" {
		variantRegions = createGenomeRegions(ctx)
	}
	alignDir := artifact.SafeMkdir(filepath.Join(ctx.WorkDir, "align", ctx.Sample))
	callableFile := filepath.Join(alignDir, ctx.Sample+"-coverage.callable.bed")

	depthFiles := make(map[string]Bundle)
	if !artifact.UpToDate(callableFile, ctx.Bam) {
		vrQuantize := CallableQuantize(ctx.MinDepth)
		targets := []TargetSpec{
			{Name: "variant_regions", RegionBed: variantRegions, Quantize: &vrQuantize},
			{Name: "sv_regions", RegionBed: ctx.SvRegions},
			{Name: "coverage", RegionBed: ctx.CoverageBed, Thresholds: DepthThresholds},
		}
		for _, target := range targets {
			if target.RegionBed == "" {
				continue
			}
			info := RunMosdepth(ctx, target.Name, target.RegionBed, false, target.Quantize, target.Thresholds)
			depthFiles[target.Name] = info
			if target.Name == "variant_regions" {
				// the quantized output doubles as the sample's callable file
				callableFile = info.Quantized
			}
		}
	}
	finalCallable := SubsetToVariantRegions(callableFile, variantRegions, ctx)
	return finalCallable, depthFiles
}

// RegionsCoverage returns the per-region depth artifact for a target,
// reusing a previously computed bundle when available.
func RegionsCoverage(ctx *coverage.Context, targetName, bedFile string, depthFiles map[string]Bundle) string {
	if info, ok := depthFiles[targetName]; ok && info.Regions != "" {
		return info.Regions
	}
	return RunMosdepth(ctx, targetName, bedFile, false, nil, nil).Regions
}

// createGenomeRegions writes a bed spanning every primary contig end to end,
// bounding whole-genome depth computation when no target regions exist.
func createGenomeRegions(ctx *coverage.Context) string {
	workDir := artifact.SafeMkdir(filepath.Join(ctx.WorkDir, "coverage", ctx.Sample))
	regionFile := filepath.Join(workDir, "target-genome.bed")
	tx := artifact.Begin(workDir)
	defer tx.Discard()
	out := fileio.EasyCreate(tx.Stage(regionFile))
	for _, c := range ref.NoAlt(ref.Contigs(ctx.RefFasta)) {
		bed.WriteBed(out, bed.Bed{Chrom: c.Name, ChromStart: 0, ChromEnd: c.Size, FieldsInitialized: 3})
	}
	err := out.Close()
	exception.PanicOnErr(err)
	tx.Commit()
	return regionFile
}

// SubsetToVariantRegions intersects the callable file with the sample's
// variant regions, clipping each callable record to the overlapped portion.
// Freshness-gated against the callable file and written transactionally.
func SubsetToVariantRegions(callableFile, variantRegions string, ctx *coverage.Context) string {
	outFile := trimBedExt(callableFile) + "-vrsubset.bed"
	if artifact.UpToDate(outFile, callableFile) {
		return outFile
	}
	targets := bed.Read(variantRegions)
	targetIntervals := make([]interval.Interval, len(targets))
	for i := range targets {
		targetIntervals[i] = targets[i]
	}
	tree := interval.BuildTree(targetIntervals)

	tx := artifact.Begin(filepath.Dir(outFile))
	defer tx.Discard()
	out := fileio.EasyCreate(tx.Stage(outFile))
	var clipped bed.Bed
	for b := range bed.GoReadToChan(callableFile) {
		if tree[b.Chrom] == nil {
			continue
		}
		for _, overlap := range interval.Query(tree, b, "any") {
			clipped = b
			if overlap.GetChromStart() > clipped.ChromStart {
				clipped.ChromStart = overlap.GetChromStart()
			}
			if overlap.GetChromEnd() < clipped.ChromEnd {
				clipped.ChromEnd = overlap.GetChromEnd()
			}
			bed.WriteBed(out, clipped)
		}
	}
	err := out.Close()
	exception.PanicOnErr(err)
	tx.Commit()
	return outFile
}

// trimBedExt strips a trailing .bed or .bed.gz extension.
func trimBedExt(path string) string {
	path = strings.TrimSuffix(path, ".gz")
	return strings.TrimSuffix(path, ".bed")
}
