/* ==================================================================================== *\
    logging.go

    --log-folder / --severity-level wiring: redirect log output to a
    per-run file if a folder is given, drop output entirely if the
    configured severity is 0 or below (Go's plain log package models
    only one severity, so 0..5 only gates on/off: 0 is off, 1..5 on).
\* ==================================================================================== */

package main

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

func setupLogging(a runArgs) {
	log.SetFlags(log.LstdFlags)

	if a.severityLevel <= 0 {
		log.SetOutput(io.Discard)
		return
	}

	if a.logFolder == "" {
		return
	}
	if err := os.MkdirAll(a.logFolder, 0777); err != nil {
		log.Print("[setupLogging]: ", err)
		return
	}
	name := filepath.Join(a.logFolder, "bgpextrap-"+strconv.FormatInt(time.Now().Unix(), 10)+".log")
	f, err := os.Create(name)
	if err != nil {
		log.Print("[setupLogging]: ", err)
		return
	}
	log.SetOutput(f)
}
