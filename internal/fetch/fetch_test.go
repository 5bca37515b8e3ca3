package fetch

import (
	"bufio"
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"harvester/internal/testsupport"
)

func TestIsRemote(t *testing.T) {
	cases := []struct {
		locator string
		want    bool
	}{
		{"https://github.com/acme/app", true},
		{"http://internal.example/repo", true},
		{"git@github.com:acme/app.git", true},
		{"/srv/mirrors/app.git", true},
		{"/home/dev/app", false},
		{"./relative/app", false},
		{"app", false},
	}
	for _, tc := range cases {
		if got := IsRemote(tc.locator); got != tc.want {
			t.Fatalf("IsRemote(%q) = %v, want %v", tc.locator, got, tc.want)
		}
	}
}

func TestResolveLocalPath(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, root, "main.go", "package main\n")

	lines, done := Resolve(context.Background(), root, "", t.TempDir())
	for range lines {
	}
	result := <-done
	if result.Err != nil {
		t.Fatalf("Resolve: %v", result.Err)
	}
	abs, _ := filepath.Abs(root)
	if result.Path != abs {
		t.Fatalf("Path = %q, want %q", result.Path, abs)
	}
}

func TestResolveLocalMissing(t *testing.T) {
	lines, done := Resolve(context.Background(), filepath.Join(t.TempDir(), "missing"), "", t.TempDir())
	for range lines {
	}
	result := <-done
	if result.Err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestResolveLocalFileNotDir(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, root, "file.txt", "x")

	lines, done := Resolve(context.Background(), filepath.Join(root, "file.txt"), "", t.TempDir())
	for range lines {
	}
	result := <-done
	if result.Err == nil {
		t.Fatal("expected error for non-directory path")
	}
}

func TestScanCloneOutputSplitsOnCarriageReturn(t *testing.T) {
	input := "Cloning into 'checkout'...\nReceiving objects:  10%\rReceiving objects: 100%\ndone.\n"
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Split(scanCloneOutput)

	var got []string
	for scanner.Scan() {
		got = append(got, scanner.Text())
	}
	want := []string{
		"Cloning into 'checkout'...",
		"Receiving objects:  10%",
		"Receiving objects: 100%",
		"done.",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tokens = %q, want %q", got, want)
	}
}
