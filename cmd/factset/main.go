package main

import (
	"github.com/seung-gu/factset-report-analyzer/cmd/factset/cmd"
)

func main() {
	cmd.Execute()
}
