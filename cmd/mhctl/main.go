// Command mhctl is the operator tool for the MerchantHaus site: it lists stored leads
// and applications and checks the content tree before a deploy.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
