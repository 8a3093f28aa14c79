/*deflect computes gravitational microlensing deflection maps from star
catalogs.*/
package main

import (
	"github.com/microlens/deflect/cmd"
)

func main() {
	cmd.Execute()
}
