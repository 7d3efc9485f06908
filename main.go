package main

import "vatfiler/cmd"

// Set during build with -ldflags "-X main.version=... -X main.releaseRepo=owner/repo"
var (
	version     = "dev"
	releaseRepo = ""
)

func main() {
	cmd.SetVersion(version)
	cmd.SetReleaseRepo(releaseRepo)
	cmd.Execute()
}
