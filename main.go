// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/jcodagnone/nermap/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
