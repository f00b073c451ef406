package main

import (
	// Compiled-in script modules.
	_ "github.com/aretw0/scripthost/modules/heartbeat"
	_ "github.com/aretw0/scripthost/modules/keyecho"
)

func main() {
	Execute()
}
