package main

import (
	"flag"
	"fmt"

	"github.com/seqcover/seqcover/coverage"
	"github.com/seqcover/seqcover/depth"
	"github.com/seqcover/seqcover/percentile"
	"github.com/vertgenlab/gonomics/exception"
)

func summaryUsage(summaryFlags *flag.FlagSet) {
	fmt.Print(
		"summary - summarize a depth distribution as percent of bases per cutoff\n\n" +
			"Usage:\n" +
			"  seqcover summary [options] -sample name -dist sample.mosdepth.dist.txt\n\n" +
			"Options:\n")
	summaryFlags.PrintDefaults()
}

func runSummary(args []string) {
	summaryFlags := flag.NewFlagSet("summary", flag.ExitOnError)
	sample := summaryFlags.String("sample", "", "Sample name reported in the summary rows.")
	distFile := summaryFlags.String("dist", "", "mosdepth distribution file to summarize.")
	summaryFlags.Usage = func() { summaryUsage(summaryFlags) }
	err := summaryFlags.Parse(args)
	exception.PanicOnErr(err)

	if *sample == "" || *distFile == "" {
		summaryFlags.Usage()
		errExit("ERROR: must declare -sample and -dist")
	}

	ctx := &coverage.Context{Sample: *sample}
	outFiles := percentile.Calculate(*distFile, depth.DepthThresholds, ctx)
	if len(outFiles) == 0 {
		fmt.Println("no distribution file found, nothing to summarize")
		return
	}
	for i := range outFiles {
		fmt.Println(outFiles[i])
	}
}
