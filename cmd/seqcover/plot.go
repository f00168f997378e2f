package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/seqcover/seqcover/percentile"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
)

func plotUsage(plotFlags *flag.FlagSet) {
	fmt.Print(
		"plot - plot a depth distribution in the terminal or to file\n\n" +
			"Usage:\n" +
			"  seqcover plot [options] -sample name -dist sample.mosdepth.dist.txt\n\n" +
			"Options:\n")
	plotFlags.PrintDefaults()
}

func runPlot(args []string) {
	plotFlags := flag.NewFlagSet("plot", flag.ExitOnError)
	sample := plotFlags.String("sample", "", "Sample name used in the plot title.")
	distFile := plotFlags.String("dist", "", "mosdepth distribution file to plot.")
	outFile := plotFlags.String("o", "", "Write a plot image (png/pdf/svg) instead of terminal output.")
	maxDepth := plotFlags.Int("maxDepth", 100, "Truncate the terminal plot at this depth.")
	plotFlags.Usage = func() { plotUsage(plotFlags) }
	err := plotFlags.Parse(args)
	exception.PanicOnErr(err)

	if *sample == "" || *distFile == "" {
		plotFlags.Usage()
		errExit("ERROR: must declare -sample and -dist")
	}

	if *outFile != "" {
		percentile.PlotDist(*distFile, *outFile, *sample)
		fmt.Println(*outFile)
		return
	}

	// terminal plot: percent of bases at or above each depth up to maxDepth
	pct := make([]float64, *maxDepth+1)
	var col []string
	var count int
	var p float64
	for _, line := range fileio.Read(*distFile) {
		col = strings.Fields(line)
		if len(col) != 3 || col[0] != "total" {
			continue
		}
		count, err = strconv.Atoi(col[1])
		exception.PanicOnErr(err)
		p, err = strconv.ParseFloat(col[2], 64)
		exception.PanicOnErr(err)
		if count <= *maxDepth {
			pct[count] = p * 100.0
		}
	}
	fmt.Println(asciigraph.Plot(pct,
		asciigraph.Height(10),
		asciigraph.Precision(0),
		asciigraph.Caption(fmt.Sprintf("%s: %% bases at or above depth (0-%d)", *sample, *maxDepth))))
}
