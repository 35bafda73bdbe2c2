package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"inspirewall/internal/manifest"
)

// gen-manifest rebuilds wallpapers.json from images/ (or assets/Images/)
// in the current directory.
func main() {
	log.SetFlags(0)
	log.SetPrefix("[gen-manifest] ")

	root, err := os.Getwd()
	if err != nil {
		log.Fatalf("working directory: %v", err)
	}

	res, err := manifest.NewGenerator(root, nil).Generate(context.Background())
	if err != nil {
		log.Fatalf("%v", err)
	}
	if len(res.Entries) == 0 {
		fmt.Println("No images found in", res.ImagesDir)
		return
	}
	fmt.Printf("Generated %d entries in %s\n", len(res.Entries), res.Output)
}
