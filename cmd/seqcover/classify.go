package main

import (
	"flag"
	"fmt"

	"github.com/seqcover/seqcover/coverage"
	"github.com/vertgenlab/gonomics/exception"
)

func classifyUsage(classifyFlags *flag.FlagSet) {
	fmt.Print(
		"classify - assign the coverage regime of a sample\n\n" +
			"Classifies coverage into 3 categories:\n" +
			"  genome    full genome coverage\n" +
			"  regional  regional coverage, like exome capture, with off-target reads\n" +
			"  amplicon  amplification based regional coverage without off-target reads\n\n" +
			"Usage:\n" +
			"  seqcover classify [options] -sample name -bam input.bam -ref reference.fasta\n\n" +
			"Options:\n")
	classifyFlags.PrintDefaults()
}

func runClassify(args []string) {
	classifyFlags := flag.NewFlagSet("classify", flag.ExitOnError)
	ctxFlags := addContextFlags(classifyFlags)
	callable := classifyFlags.String("callable", "", "Callable-region bed consulted when -targets is absent.")
	classifyFlags.Usage = func() { classifyUsage(classifyFlags) }
	err := classifyFlags.Parse(args)
	exception.PanicOnErr(err)

	if *ctxFlags.sample == "" || *ctxFlags.bam == "" || *ctxFlags.refFasta == "" {
		classifyFlags.Usage()
		errExit("ERROR: must declare -sample, -bam, and -ref")
	}
	if *ctxFlags.variantRegions == "" && *callable == "" {
		errExit("ERROR: must declare -targets or -callable")
	}

	ctx := ctxFlags.context()
	coverage.AssignInterval(ctx, *callable)
	fmt.Println(ctx.CoverageInterval())
}
