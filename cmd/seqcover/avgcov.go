package main

import (
	"flag"
	"fmt"

	"github.com/seqcover/seqcover/cache"
	"github.com/vertgenlab/gonomics/exception"
)

func avgCovUsage(avgCovFlags *flag.FlagSet) {
	fmt.Print(
		"avgcov - report cached average coverage for a target\n\n" +
			"With -bed, averages the per-region depth artifact weighted by region\n" +
			"length. Without -bed, estimates whole-genome coverage from the bam\n" +
			"index and a bounded read-length sample. Results are cached per\n" +
			"(sample, target) and reused while the cache is fresh.\n\n" +
			"Usage:\n" +
			"  seqcover avgcov [options] -sample name -bam input.bam -ref reference.fasta -target coverage\n\n" +
			"Options:\n")
	avgCovFlags.PrintDefaults()
}

func runAvgCov(args []string) {
	avgCovFlags := flag.NewFlagSet("avgcov", flag.ExitOnError)
	ctxFlags := addContextFlags(avgCovFlags)
	targetName := avgCovFlags.String("target", "coverage", "Target name keying the cache and depth artifacts.")
	bedFile := avgCovFlags.String("bed", "", "Bed file with regions to average over. Omit for a whole-genome estimate.")
	avgCovFlags.Usage = func() { avgCovUsage(avgCovFlags) }
	err := avgCovFlags.Parse(args)
	exception.PanicOnErr(err)

	if *ctxFlags.sample == "" || *ctxFlags.bam == "" {
		avgCovFlags.Usage()
		errExit("ERROR: must declare -sample and -bam")
	}
	if *bedFile == "" && *ctxFlags.refFasta == "" {
		errExit("ERROR: whole-genome estimate requires -ref")
	}

	ctx := ctxFlags.context()
	avg := cache.GetAverageCoverage(ctx, *targetName, *bedFile, nil)
	fmt.Println(avg)
}
