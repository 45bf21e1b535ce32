package main

import "github.com/slashbeast/pkg-testing-tool/internal/ptt"

func main() {
	ptt.Main()
}
