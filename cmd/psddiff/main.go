// Command psddiff is a thin shell over the psddiff library: it parses
// flags, opens files, calls into the library, and prints results or
// errors. It contains no parsing, diffing, or chunking logic of its own.
//
// Usage:
//
//	psddiff measure <a.psd> <b.psd>
//	psddiff create <a.psd> <b.psd> <out.diff|->
//	psddiff apply <a.psd> <diff...> <out.psd|->
//	psddiff combine <diff...> <out.diff|->
//	psddiff decompose <psd...>
//	psddiff restore [-prefix p] [-postfix p] [-o out|-] <manifest...>
//	psddiff sha <manifest...>
//	psddiff remove <manifest...>
//	psddiff cleanup <dir>
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/deepteams/psddiff"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	verbose := os.Getenv("PSDDIFF_VERBOSE") == "true"
	start := time.Now()

	var err error
	switch os.Args[1] {
	case "measure":
		err = runMeasure(os.Args[2:])
	case "create":
		err = runCreate(os.Args[2:])
	case "apply":
		err = runApply(os.Args[2:])
	case "combine":
		err = runCombine(os.Args[2:])
	case "decompose":
		err = runDecompose(os.Args[2:])
	case "restore":
		err = runRestore(os.Args[2:])
	case "sha":
		err = runSha(os.Args[2:])
	case "remove":
		err = runRemove(os.Args[2:])
	case "cleanup":
		err = runCleanup(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "psddiff: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "psddiff: %s took %s\n", os.Args[1], time.Since(start))
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "psddiff: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  psddiff measure <a.psd> <b.psd>
  psddiff create <a.psd> <b.psd> <out.diff|->
  psddiff apply <a.psd> <diff...> <out.psd|->
  psddiff combine <diff...> <out.diff|->
  psddiff decompose <psd...>
  psddiff restore [-prefix p] [-postfix p] [-o out|-] <manifest...>
  psddiff sha <manifest...>
  psddiff remove <manifest...>
  psddiff cleanup <dir>

Set PSDDIFF_VERBOSE=true to print wall-clock timings to stderr.
`)
}

// openOutput returns a writer for path, treating "-" as stdout. The
// returned closer is a no-op for stdout.
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func runMeasure(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("measure: usage: psddiff measure <a.psd> <b.psd>")
	}
	n, err := psddiff.Measure(args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Printf("%d\n", n)
	return nil
}

func runCreate(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("create: usage: psddiff create <a.psd> <b.psd> <out.diff|->")
	}
	out, closeOut, err := openOutput(args[2])
	if err != nil {
		return err
	}
	if err := psddiff.Create(args[0], args[1], out); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func runApply(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("apply: usage: psddiff apply <a.psd> <diff...> <out.psd|->")
	}
	aPath := args[0]
	diffPaths := args[1 : len(args)-1]
	outPath := args[len(args)-1]

	out, closeOut, err := openOutput(outPath)
	if err != nil {
		return err
	}
	if err := psddiff.Apply(aPath, diffPaths, out); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func runCombine(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("combine: usage: psddiff combine <diff...> <out.diff|-> (at least 2 diffs)")
	}
	diffPaths := args[:len(args)-1]
	outPath := args[len(args)-1]

	out, closeOut, err := openOutput(outPath)
	if err != nil {
		return err
	}
	if err := psddiff.Combine(diffPaths, out); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func runDecompose(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("decompose: usage: psddiff decompose <psd...>")
	}
	return psddiff.Decompose(args)
}

func runRestore(args []string) error {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	prefix := fs.String("prefix", "", "prefix prepended to each restored file's name")
	postfix := fs.String("postfix", "", "postfix appended to each restored file's name")
	output := fs.String("o", "", `write a single manifest's bytes here instead of a named file ("-" for stdout)`)
	if err := fs.Parse(args); err != nil {
		return err
	}
	manifests := fs.Args()
	if len(manifests) < 1 {
		return fmt.Errorf("restore: usage: psddiff restore [-prefix p] [-postfix p] [-o out|-] <manifest...>")
	}

	if *output != "" {
		out, closeOut, err := openOutput(*output)
		if err != nil {
			return err
		}
		if err := psddiff.Restore(manifests, "", "", out); err != nil {
			closeOut()
			return err
		}
		return closeOut()
	}
	return psddiff.Restore(manifests, *prefix, *postfix, nil)
}

func runSha(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("sha: usage: psddiff sha <manifest...>")
	}
	hashes, err := psddiff.Sha(args)
	if err != nil {
		return err
	}
	for _, h := range hashes {
		fmt.Println(h)
	}
	return nil
}

func runRemove(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("remove: usage: psddiff remove <manifest...>")
	}
	return psddiff.Remove(args)
}

func runCleanup(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("cleanup: usage: psddiff cleanup <dir>")
	}
	return psddiff.Cleanup(args[0])
}
