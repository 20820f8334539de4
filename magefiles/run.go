//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const sampleReviews = "testdata/sample_reviews.json"

// Sample scores the bundled sample reviews against a sertraline trial.
func Sample() error {
	mg.Deps(Build)
	return sh.RunV("bin/"+binName, "analyze", sampleReviews,
		"--therapy-name", "sertraline",
		"--condition", "depression",
		"--trial-year", "2019",
		"--duration-weeks", "8",
		"--alias", "Zoloft",
		"--side-effect", "nausea,insomnia")
}

// Serve builds the binary and runs the HTTP API with the default config.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV("bin/"+binName, "serve")
}
