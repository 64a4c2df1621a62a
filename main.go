// The main package for the sinaica executable.
package main

import "github.com/aqmex/sinaica-scraper/cmd"

func main() {
	cmd.Execute()
}
