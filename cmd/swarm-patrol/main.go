package main

import (
	"fmt"
	"os"

	// Import to register the simulation
	_ "github.com/nestwing/swarmsim/cmd/swarm-patrol/simulation"
)

func main() {
	fmt.Println("Swarm Patrol simulation registered. Use 'swarmsim run' to execute.")
	os.Exit(0)
}
