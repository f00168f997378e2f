package main

import (
	"flag"
	"fmt"

	"github.com/seqcover/seqcover/depth"
	"github.com/vertgenlab/gonomics/exception"
)

func depthUsage(depthFlags *flag.FlagSet) {
	fmt.Print(
		"depth - compute depth artifacts for a sample with mosdepth\n\n" +
			"Runs mosdepth once per configured target (variant_regions, sv_regions,\n" +
			"coverage), producing distribution, region-depth, quantized-callability\n" +
			"and threshold artifacts. Fresh artifacts are not recomputed.\n\n" +
			"Usage:\n" +
			"  seqcover depth [options] -sample name -bam input.bam -ref reference.fasta\n\n" +
			"Options:\n")
	depthFlags.PrintDefaults()
}

func runDepth(args []string) {
	depthFlags := flag.NewFlagSet("depth", flag.ExitOnError)
	ctxFlags := addContextFlags(depthFlags)
	depthFlags.Usage = func() { depthUsage(depthFlags) }
	err := depthFlags.Parse(args)
	exception.PanicOnErr(err)

	if *ctxFlags.sample == "" || *ctxFlags.bam == "" || *ctxFlags.refFasta == "" {
		depthFlags.Usage()
		errExit("ERROR: must declare -sample, -bam, and -ref")
	}

	ctx := ctxFlags.context()
	finalCallable, depthFiles := depth.Calculate(ctx)
	fmt.Printf("callable\t%s\n", finalCallable)
	for name, info := range depthFiles {
		fmt.Printf("%s.dist\t%s\n", name, info.Dist)
		if info.Regions != "" {
			fmt.Printf("%s.regions\t%s\n", name, info.Regions)
		}
		if info.Quantized != "" {
			fmt.Printf("%s.quantized\t%s\n", name, info.Quantized)
		}
		if info.Thresholds != "" {
			fmt.Printf("%s.thresholds\t%s\n", name, info.Thresholds)
		}
	}
}
