// Package ref enumerates reference genome contigs from a fasta .fai index.
package ref

import (
	"log"
	"strconv"
	"strings"

	"github.com/vertgenlab/gonomics/chromInfo"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
)

// Contigs reads the fai index next to refFasta (refFasta + ".fai") and
// returns every contig with its length. Order matches the index.
func Contigs(refFasta string) []chromInfo.ChromInfo {
	filename := refFasta + ".fai"
	file := fileio.EasyOpen(filename)
	var answer []chromInfo.ChromInfo
	var line string
	var col []string
	var done bool
	var size int
	var err error
	for line, done = fileio.EasyNextRealLine(file); !done; line, done = fileio.EasyNextRealLine(file) {
		col = strings.Split(line, "\t")
		if len(col) != 5 {
			log.Fatalf("ERROR: malformed fai index file: %s\nerror on line:\n%s\n", filename, line)
		}
		size, err = strconv.Atoi(col[1])
		exception.PanicOnErr(err)
		answer = append(answer, chromInfo.ChromInfo{Name: col[0], Size: size, Order: len(answer)})
	}
	err = file.Close()
	exception.PanicOnErr(err)
	return answer
}

// NoAlt filters contigs down to the primary assembly, removing alternate
// haplotypes, HLA contigs, decoys and the EBV contig that should not count
// towards usable genome size.
func NoAlt(contigs []chromInfo.ChromInfo) []chromInfo.ChromInfo {
	var answer []chromInfo.ChromInfo
	for i := range contigs {
		if isAlt(contigs[i].Name) {
			continue
		}
		answer = append(answer, contigs[i])
	}
	return answer
}

func isAlt(name string) bool {
	switch {
	case strings.HasSuffix(name, "_alt"):
		return true
	case strings.HasSuffix(name, "_decoy"):
		return true
	case strings.HasPrefix(name, "HLA-"):
		return true
	case name == "hs37d5" || name == "chrEBV" || name == "EBV":
		return true
	}
	return false
}

// TotalSize returns the summed length of contigs.
func TotalSize(contigs []chromInfo.ChromInfo) int {
	var total int
	for i := range contigs {
		total += contigs[i].Size
	}
	return total
}
