package main

import (
	"flag"

	"github.com/seqcover/seqcover/coverage"
)

// contextFlags holds the per-sample options shared by most subcommands.
type contextFlags struct {
	sample         *string
	bam            *string
	refFasta       *string
	variantRegions *string
	svRegions      *string
	coverageBed    *string
	workDir        *string
	minDepth       *int
	threads        *int
}

func addContextFlags(flags *flag.FlagSet) *contextFlags {
	var c contextFlags
	c.sample = flags.String("sample", "", "Sample name used in artifact file names.")
	c.bam = flags.String("bam", "", "Coordinate-sorted bam file with alignments. Must be indexed.")
	c.refFasta = flags.String("ref", "", "Reference fasta used to align the bam. Must have a .fai index.")
	c.variantRegions = flags.String("targets", "", "Bed file with merged variant/target regions. Omit for whole-genome samples.")
	c.svRegions = flags.String("sv", "", "Bed file with structural-variant regions.")
	c.coverageBed = flags.String("coverage", "", "Bed file with explicit coverage regions of interest.")
	c.workDir = flags.String("workdir", ".", "Working directory root for generated artifacts.")
	c.minDepth = flags.Int("minDepth", 4, "Minimum depth for a base to count as callable.")
	c.threads = flags.Int("threads", 1, "Number of processor threads for the depth tool.")
	return &c
}

func (c *contextFlags) context() *coverage.Context {
	return &coverage.Context{
		Sample:         *c.sample,
		RefFasta:       *c.refFasta,
		Bam:            *c.bam,
		VariantRegions: *c.variantRegions,
		SvRegions:      *c.svRegions,
		CoverageBed:    *c.coverageBed,
		WorkDir:        *c.workDir,
		MinDepth:       *c.minDepth,
		Cores:          *c.threads,
	}
}
