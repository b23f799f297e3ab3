//go:build wasm

package main

import (
	"syscall/js"
)

func main() {
	js.Global().Set("WildscanNewScanner", js.FuncOf(newScanner))
	js.Global().Set("WildscanScan", js.FuncOf(scan))
	js.Global().Set("WildscanScanBatch", js.FuncOf(scanBatch))
	js.Global().Set("WildscanMatch", js.FuncOf(match))
	js.Global().Set("WildscanCloseScanner", js.FuncOf(closeScanner))
	js.Global().Set("WildscanGetBuiltinPatterns", js.FuncOf(getBuiltinPatterns))

	// Keep the module alive for callbacks.
	<-make(chan struct{})
}
