package main

import "github.com/qecflow/rtdec/cmd/rtdec/cmd"

func main() {
	cmd.Execute()
}
