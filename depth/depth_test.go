package depth

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/seqcover/seqcover/artifact"
	"github.com/seqcover/seqcover/coverage"
	"github.com/vertgenlab/gonomics/fileio"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func testContext(t *testing.T) *coverage.Context {
	t.Helper()
	dir := t.TempDir()
	ctx := &coverage.Context{
		Sample:   "NA12878",
		RefFasta: filepath.Join(dir, "genome.fa"),
		Bam:      filepath.Join(dir, "NA12878.bam"),
		WorkDir:  filepath.Join(dir, "work"),
		MinDepth: 4,
		Cores:    1,
	}
	writeTestFile(t, ctx.RefFasta+".fai", "chr1\t1000\t6\t60\t61\nchr2\t1000\t1030\t60\t61\n")
	writeTestFile(t, ctx.Bam, "fake bam payload")
	return ctx
}

func hasArg(args []string, want string) bool {
	for i := range args {
		if args[i] == want {
			return true
		}
	}
	return false
}

// fakeMosdepth writes plausible outputs to the staging prefix, standing in
// for the external binary.
func fakeMosdepth(invocations *int, lastArgs *[]string, lastEnv *[]string) func(cmd *exec.Cmd) error {
	return func(cmd *exec.Cmd) error {
		*invocations++
		*lastArgs = cmd.Args
		*lastEnv = cmd.Env
		prefix := cmd.Args[len(cmd.Args)-2]
		out := fileio.EasyCreate(prefix + ".mosdepth.dist.txt")
		fmt.Fprintf(out, "total\t10\t0.95\ntotal\t1\t1.00\n")
		out.Close()
		if hasArg(cmd.Args, "--by") {
			out = fileio.EasyCreate(prefix + ".regions.bed.gz")
			fmt.Fprintf(out, "chr1\t0\t100\t10.00\n")
			out.Close()
		}
		if hasArg(cmd.Args, "--quantize") {
			out = fileio.EasyCreate(prefix + ".quantized.bed.gz")
			fmt.Fprintf(out, "chr1\t0\t50\tCALLABLE\nchr1\t50\t150\tLOW_COVERAGE\n")
			out.Close()
		}
		if hasArg(cmd.Args, "-T") {
			out = fileio.EasyCreate(prefix + ".thresholds.bed.gz")
			fmt.Fprintf(out, "#chrom\tstart\tend\tregion\t1X\t5X\nchr1\t0\t100\tr\t100\t50\n")
			out.Close()
		}
		return nil
	}
}

func TestCalculate(t *testing.T) {
	ctx := testContext(t)
	dir := filepath.Dir(ctx.Bam)
	ctx.VariantRegions = filepath.Join(dir, "targets.bed")
	ctx.SvRegions = filepath.Join(dir, "sv.bed")
	ctx.CoverageBed = filepath.Join(dir, "coverage.bed")
	writeTestFile(t, ctx.VariantRegions, "chr1\t0\t100\n")
	writeTestFile(t, ctx.SvRegions, "chr1\t200\t300\n")
	writeTestFile(t, ctx.CoverageBed, "chr1\t0\t100\n")

	var invocations int
	var lastArgs, lastEnv []string
	orig := runCommand
	runCommand = fakeMosdepth(&invocations, &lastArgs, &lastEnv)
	defer func() { runCommand = orig }()

	finalCallable, depthFiles := Calculate(ctx)

	if invocations != 3 {
		t.Errorf("expected 3 mosdepth invocations, got %d", invocations)
	}
	for _, name := range []string{"variant_regions", "sv_regions", "coverage"} {
		info, ok := depthFiles[name]
		if !ok {
			t.Fatalf("missing bundle for target %s", name)
		}
		if !artifact.Exists(info.Dist) {
			t.Errorf("%s: distribution artifact missing", name)
		}
		if !artifact.Exists(info.Regions) {
			t.Errorf("%s: regions artifact missing", name)
		}
	}
	if depthFiles["variant_regions"].Quantized == "" || !artifact.Exists(depthFiles["variant_regions"].Quantized) {
		t.Error("variant_regions target should produce a quantized artifact")
	}
	if depthFiles["sv_regions"].Quantized != "" || depthFiles["sv_regions"].Thresholds != "" {
		t.Error("sv_regions target should produce neither quantized nor threshold artifacts")
	}
	if depthFiles["coverage"].Thresholds == "" || !artifact.Exists(depthFiles["coverage"].Thresholds) {
		t.Error("coverage target should produce a thresholds artifact")
	}

	// callable output clipped to the 0-100 target window
	want := []string{"chr1\t0\t50\tCALLABLE", "chr1\t50\t100\tLOW_COVERAGE"}
	got := fileio.Read(finalCallable)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("unexpected final callable content:\ngot  %v\nwant %v", got, want)
	}
}

func TestCalculateIdempotent(t *testing.T) {
	ctx := testContext(t)
	ctx.VariantRegions = filepath.Join(filepath.Dir(ctx.Bam), "targets.bed")
	writeTestFile(t, ctx.VariantRegions, "chr1\t0\t100\n")

	var invocations int
	var lastArgs, lastEnv []string
	orig := runCommand
	runCommand = fakeMosdepth(&invocations, &lastArgs, &lastEnv)
	defer func() { runCommand = orig }()

	_, depthFiles := Calculate(ctx)
	if invocations != 1 {
		t.Fatalf("expected 1 invocation on first run, got %d", invocations)
	}
	dist := depthFiles["variant_regions"].Dist
	info, err := os.Stat(dist)
	if err != nil {
		t.Fatal(err)
	}
	firstMtime := info.ModTime()

	_, _ = Calculate(ctx)
	if invocations != 1 {
		t.Errorf("second run with unchanged inputs should not reinvoke mosdepth, got %d invocations", invocations)
	}
	info, err = os.Stat(dist)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(firstMtime) {
		t.Error("second run must not modify artifact mtimes")
	}
}

func TestRunMosdepthArgs(t *testing.T) {
	ctx := testContext(t)
	bedFile := filepath.Join(filepath.Dir(ctx.Bam), "targets.bed")
	writeTestFile(t, bedFile, "chr1\t0\t100\n")

	var invocations int
	var lastArgs, lastEnv []string
	orig := runCommand
	runCommand = fakeMosdepth(&invocations, &lastArgs, &lastEnv)
	defer func() { runCommand = orig }()

	quantize := CallableQuantize(ctx.MinDepth)
	RunMosdepth(ctx, "variant_regions", bedFile, false, &quantize, nil)

	for _, want := range []string{"-F", "1804", "--no-per-base", "--by", "--quantize", "0:1:4:", "-Q"} {
		if !hasArg(lastArgs, want) {
			t.Errorf("expected argument %q in %v", want, lastArgs)
		}
	}
	for i, label := range quantize.Labels {
		if !hasArg(lastEnv, fmt.Sprintf("MOSDEPTH_Q%d=%s", i, label)) {
			t.Errorf("expected MOSDEPTH_Q%d=%s in environment", i, label)
		}
	}

	// no quantize and no per-base output drops the mapping quality floor
	RunMosdepth(ctx, "sv_regions", bedFile, false, nil, nil)
	if hasArg(lastArgs, "-Q") {
		t.Error("mapping quality floor should only apply to per-base or quantized runs")
	}
	if hasArg(lastArgs, "--quantize") {
		t.Error("unexpected quantize argument")
	}

	// thresholds are passed as a sorted comma-separated list
	RunMosdepth(ctx, "coverage", bedFile, false, nil, []int{10, 1, 5})
	if !hasArg(lastArgs, "-T") || !hasArg(lastArgs, "1,5,10") {
		t.Errorf("expected sorted threshold list in %v", lastArgs)
	}
}

func TestRunMosdepthAtomicity(t *testing.T) {
	ctx := testContext(t)
	bedFile := filepath.Join(filepath.Dir(ctx.Bam), "targets.bed")
	writeTestFile(t, bedFile, "chr1\t0\t100\n")

	orig := runCommand
	runCommand = func(cmd *exec.Cmd) error {
		// simulate the tool dying after writing partial output
		prefix := cmd.Args[len(cmd.Args)-2]
		writeTestFile(t, prefix+".mosdepth.dist.txt", "total\t1\t0.5\n")
		return fmt.Errorf("killed")
	}
	defer func() { runCommand = orig }()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on mosdepth failure")
		}
		dist := filepath.Join(ctx.WorkDir, "coverage", ctx.Sample, ctx.Sample+"-variant_regions.mosdepth.dist.txt")
		if artifact.Exists(dist) {
			t.Error("failed invocation must not leave a final artifact")
		}
		leftovers, _ := filepath.Glob(filepath.Join(ctx.WorkDir, "coverage", ctx.Sample, "tx*"))
		if len(leftovers) != 0 {
			t.Errorf("staging directories not cleaned up: %v", leftovers)
		}
	}()
	quantize := CallableQuantize(ctx.MinDepth)
	RunMosdepth(ctx, "variant_regions", bedFile, false, &quantize, nil)
}

func TestCalculateWholeGenomeFallback(t *testing.T) {
	ctx := testContext(t)

	var invocations int
	var lastArgs, lastEnv []string
	orig := runCommand
	runCommand = fakeMosdepth(&invocations, &lastArgs, &lastEnv)
	defer func() { runCommand = orig }()

	_, _ = Calculate(ctx)

	synthesized := filepath.Join(ctx.WorkDir, "coverage", ctx.Sample, "target-genome.bed")
	got := fileio.Read(synthesized)
	want := []string{"chr1\t0\t1000", "chr2\t0\t1000"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("unexpected synthesized genome regions:\ngot  %v\nwant %v", got, want)
	}
	if !hasArg(lastArgs, synthesized) {
		t.Errorf("mosdepth should be invoked with the synthesized region file, args: %v", lastArgs)
	}
}

func TestSubsetToVariantRegions(t *testing.T) {
	ctx := testContext(t)
	dir := filepath.Dir(ctx.Bam)
	callable := filepath.Join(dir, "sample.quantized.bed")
	targets := filepath.Join(dir, "targets.bed")
	writeTestFile(t, callable, "chr1\t0\t50\tCALLABLE\nchr1\t40\t200\tLOW_COVERAGE\nchr2\t0\t100\tCALLABLE\n")
	writeTestFile(t, targets, "chr1\t25\t100\n")

	out := SubsetToVariantRegions(callable, targets, ctx)
	want := []string{"chr1\t25\t50\tCALLABLE", "chr1\t40\t100\tLOW_COVERAGE"}
	got := fileio.Read(out)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("unexpected subset content:\ngot  %v\nwant %v", got, want)
	}

	// second call is freshness-gated against the callable file
	info, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	first := info.ModTime()
	out2 := SubsetToVariantRegions(callable, targets, ctx)
	if out2 != out {
		t.Errorf("output path should be deterministic: %s vs %s", out, out2)
	}
	info, err = os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(first) {
		t.Error("fresh subset output should not be rewritten")
	}
}
