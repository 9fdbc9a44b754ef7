package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/studentvault/internal/adminctl"
)

func main() {
	os.Exit(adminctl.Run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
