// Package coverage classifies the sequencing-depth pattern of a sample into
// one of three regimes based on how much of the genome its target regions
// cover and how many reads fall outside those targets.
package coverage

import (
	"log"

	"github.com/seqcover/seqcover/ref"
	"github.com/vertgenlab/gonomics/bed"
	"github.com/vertgenlab/gonomics/interval"
	"github.com/vertgenlab/gonomics/sam"
)

// GenomeCovThresh is the fraction of the genome that must be covered by
// callable regions for a sample to be treated as whole genome.
const GenomeCovThresh float64 = 0.40

// OfftargetThresh is the fraction of off-target reads above which a targeted
// sample is considered capture based rather than amplicon based.
const OfftargetThresh float64 = 0.01

// read exclusion matching the depth tool: unmapped, secondary, qc fail, duplicate.
const excludeFlags uint16 = 4 | 256 | 512 | 1024

// Interval is the coverage regime assigned to a sample.
type Interval byte

const (
	Unknown  Interval = iota
	Genome            // unbiased whole-genome sequencing
	Regional          // hybrid capture with off-target reads, e.g. exome
	Amplicon          // targeted amplification with minimal off-target reads
)

func (i Interval) String() string {
	switch i {
	case Genome:
		return "genome"
	case Regional:
		return "regional"
	case Amplicon:
		return "amplicon"
	}
	return "unknown"
}

// Context bundles the per-sample inputs and parameters this stage reads.
// The coverage interval is the only slot written here, exactly once.
type Context struct {
	Sample         string // sample name, used in all artifact paths
	RefFasta       string // reference fasta, must have a .fai index
	Bam            string // coordinate-sorted alignment file
	VariantRegions string // merged variant/target regions bed, may be empty
	SvRegions      string // structural-variant regions bed, may be empty
	CoverageBed    string // explicit coverage regions of interest, may be empty
	WorkDir        string // root for all generated artifacts
	MinDepth       int    // minimum depth for a base to be callable
	Cores          int    // thread budget handed to the external depth tool

	covInterval Interval
}

// CoverageInterval returns the assigned regime, or Unknown before assignment.
func (c *Context) CoverageInterval() Interval {
	return c.covInterval
}

// SetCoverageInterval records the regime. The first write wins; later calls
// are ignored so an assigned interval never reverts.
func (c *Context) SetCoverageInterval(ci Interval) {
	if c.covInterval != Unknown {
		return
	}
	c.covInterval = ci
}

// AssignInterval classifies ctx as genome, regional or amplicon coverage.
// callableFile is the sample's callable-region artifact, consulted only when
// no variant regions were supplied. No-op if the interval is already set.
//
// Samples covering more than GenomeCovThresh of the usable genome are
// whole genome. Below that, samples without a target definition are regional;
// samples with targets are split on the off-target read fraction, regional
// above OfftargetThresh and amplicon otherwise.
func AssignInterval(ctx *Context, callableFile string) {
	if ctx.CoverageInterval() != Unknown {
		return
	}
	var callableSize int
	if ctx.VariantRegions != "" {
		callableSize = TotalCoverage(ctx.VariantRegions)
	} else {
		callableSize = TotalCoverage(callableFile)
	}
	totalSize := ref.TotalSize(ref.NoAlt(ref.Contigs(ctx.RefFasta)))
	if totalSize == 0 {
		log.Fatalf("ERROR: reference %s has no usable contigs\n", ctx.RefFasta)
	}
	genomeCovPct := float64(callableSize) / float64(totalSize)

	var covInterval Interval
	var offtargetPct float64
	switch {
	case genomeCovPct > GenomeCovThresh:
		covInterval = Genome
	case ctx.VariantRegions == "":
		covInterval = Regional
	default:
		offtargetPct = CountOfftarget(ctx.Bam, ctx.VariantRegions)
		if offtargetPct > OfftargetThresh {
			covInterval = Regional
		} else {
			covInterval = Amplicon
		}
	}
	log.Printf("%s: assigned coverage as '%s' with %.1f%% genome coverage and %.1f%% offtarget coverage\n",
		ctx.Sample, covInterval, genomeCovPct*100.0, offtargetPct*100.0)
	ctx.SetCoverageInterval(covInterval)
}

// CountOfftarget returns the fraction of uniquely mapped reads that do not
// overlap any region in bedFile. Duplicate, secondary, qc fail and unmapped
// reads are excluded from both counts. Returns 0 when no reads pass filters.
func CountOfftarget(bamFile, bedFile string) float64 {
	targets := bed.Read(bedFile)
	targetIntervals := make([]interval.Interval, len(targets))
	for i := range targets {
		targetIntervals[i] = targets[i]
	}
	tree := interval.BuildTree(targetIntervals)

	reads, _ := sam.GoReadToChan(bamFile)
	var mappedUnique, ontarget int
	for r := range reads {
		if r.Flag&excludeFlags != 0 {
			continue
		}
		mappedUnique++
		if tree[r.RName] != nil && len(interval.Query(tree, r, "any")) > 0 {
			ontarget++
		}
	}
	if mappedUnique == 0 {
		return 0.0
	}
	return float64(mappedUnique-ontarget) / float64(mappedUnique)
}

// TotalCoverage returns the summed length of all regions in bedFile.
func TotalCoverage(bedFile string) int {
	var total int
	for b := range bed.GoReadToChan(bedFile) {
		total += b.ChromEnd - b.ChromStart
	}
	return total
}
