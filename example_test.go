package psddiff_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/deepteams/psddiff"
)

func ExampleCreate() {
	dir, err := os.MkdirTemp("", "psddiff-example")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer os.RemoveAll(dir)

	aPath := filepath.Join(dir, "a.psd")
	bPath := filepath.Join(dir, "b.psd")
	if err := os.WriteFile(aPath, buildPSD([]byte("before")), 0o644); err != nil {
		fmt.Println(err)
		return
	}
	if err := os.WriteFile(bPath, buildPSD([]byte("after, a bit longer")), 0o644); err != nil {
		fmt.Println(err)
		return
	}

	var diff bytes.Buffer
	if err := psddiff.Create(aPath, bPath, &diff); err != nil {
		fmt.Println(err)
		return
	}

	diffPath := filepath.Join(dir, "a-to-b.diff")
	if err := os.WriteFile(diffPath, diff.Bytes(), 0o644); err != nil {
		fmt.Println(err)
		return
	}

	var out bytes.Buffer
	if err := psddiff.Apply(aPath, []string{diffPath}, &out); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(bytes.Equal(out.Bytes(), buildPSD([]byte("after, a bit longer"))))
	// Output:
	// true
}

func ExampleMeasure() {
	dir, err := os.MkdirTemp("", "psddiff-example")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer os.RemoveAll(dir)

	aPath := filepath.Join(dir, "a.psd")
	bPath := filepath.Join(dir, "b.psd")
	if err := os.WriteFile(aPath, buildPSD([]byte("same")), 0o644); err != nil {
		fmt.Println(err)
		return
	}
	if err := os.WriteFile(bPath, buildPSD([]byte("same")), 0o644); err != nil {
		fmt.Println(err)
		return
	}

	n, err := psddiff.Measure(aPath, bPath)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(n > 0)
	// Output:
	// true
}
