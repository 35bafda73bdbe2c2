package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"inspirewall/internal/manifest"
)

// copy-images copies assets/Images/* into a top-level images/ directory.
func main() {
	log.SetFlags(0)
	log.SetPrefix("[copy-images] ")

	root, err := os.Getwd()
	if err != nil {
		log.Fatalf("working directory: %v", err)
	}
	src := filepath.Join(root, "assets", "Images")
	dst := filepath.Join(root, "images")

	n, err := manifest.CopyImages(src, dst, nil)
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Printf("Copied %d files to %s\n", n, dst)
}
