// Package main é o ponto de entrada do comando cielo
package main

import (
	"os"

	"github.com/magnani/cielo-ecommerce/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
