// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saferwall/yaradec"
	"github.com/saferwall/yaradec/log"
	"github.com/spf13/cobra"
)

var cfgPath string

func decompile(cmd *cobra.Command, args []string) {
	cfg := defaultConfig()
	if cfgPath != "" {
		var err error
		cfg, err = loadConfig(cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Usage error (%s)\n", err)
			os.Exit(1)
		}
	}

	filtered := log.NewFilter(log.NewStdLogger(os.Stdout),
		log.FilterLevel(log.ParseLevel(cfg.Log.Level)))
	logger := log.NewHelper(filtered)

	data, err := ioutil.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid file (%s)\n", err)
		os.Exit(2)
	}

	yr, err := yaradec.NewBytes(data, &yaradec.Options{Logger: filtered})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid file (%s)\n", err)
		os.Exit(2)
	}

	if err := yr.Parse(); err != nil {
		if errors.Is(err, yaradec.ErrBadMagic) &&
			mimetype.Detect(data).Is("text/plain") {
			logger.Warnf("%s looks like a plain-text rules source;"+
				" expected a compiled rules file", args[0])
		}
		fmt.Fprintf(os.Stderr, "Invalid file (%s)\n", err)
		os.Exit(2)
	}

	logger.Debugf("decoded %d rules from %s", len(yr.Rules), args[0])

	opts := cfg.renderOptions()
	for _, rule := range yr.Rules {
		fmt.Println(rule.Render(opts))
	}
}

func main() {

	var rootCmd = &cobra.Command{
		Use:   "yaradec [path]",
		Short: "A compiled YARA rules decompiler",
		Long: "Recovers an approximate textual source from a compiled" +
			" YARA rules file, by Saferwall",
		Args: cobra.ExactArgs(1),
		Run:  decompile,
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version number",
		Long:  "Print version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("You are using version 0.1.0")
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "",
		"path to a YAML options file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
