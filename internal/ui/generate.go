package ui

//go:generate sh -c "cd ../../web/hubui && GOOS=js GOARCH=wasm go build -o ../../internal/ui/dist/main.wasm ."
//go:generate sh -c "cp \"$(go env GOROOT)/lib/wasm/wasm_exec.js\" dist/wasm_exec.js 2>/dev/null || cp \"$(go env GOROOT)/misc/wasm/wasm_exec.js\" dist/wasm_exec.js"
