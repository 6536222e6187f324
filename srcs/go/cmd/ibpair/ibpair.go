package main

import (
	"os"

	"github.com/lsds/ibpair/srcs/go/cmd/ibpair/app"
)

func main() { app.Main(os.Args[1:]) }
