package main

import (
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/studentrecords/client"
	"github.com/trezcool/studentrecords/core"
	"github.com/trezcool/studentrecords/core/student"
)

func main() {
	logger := log.New(os.Stderr, "", 0)

	conf := core.NewConfig()
	validate, translator := student.NewValidator()

	cli := commandLine{
		store:      client.NewStore(conf.Client.BaseURL, nil),
		validate:   validate,
		translator: translator,
		in:         os.Stdin,
		out:        os.Stdout,
		inFd:       int(os.Stdin.Fd()),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("error: %s", errors.Cause(err))
		}
		os.Exit(1)
	}
}
