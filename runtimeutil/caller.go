// Package runtimeutil captures where in the program a call was made.
package runtimeutil

import (
	"runtime"
	"strings"
)

// Caller returns the function name, full file path and line of the caller
// calldepth frames up. Caller(0) is the function which called Caller.
//
// The function name has its package path stripped, e.g. "(*Registry).Dispatch".
func Caller(calldepth uint8) (func0, file string, line int) {
	_, func0, file, line = pkgFuncFileLine(calldepth+1, false, true)
	return
}

// PkgFuncFileLine will return the line information, with the file reduced to its base name.
//
// Examples:
//  1. func Compile() IN github.com/ugorji/go-catlog/pattern/compile.go
//     subsystem: pattern
//     file/line: compile.go
//     func0:     Compile
//  2. func (*Registry) Build IN github.com/ugorji/go-catlog/registry/build.go
//     subsystem: registry
//     file/line: build.go
//     func0:     (*Registry).Build
func PkgFuncFileLine(calldepth uint8) (subsystem, func0, file string, line int) {
	subsystem, func0, file, line = pkgFuncFileLine(calldepth+1, true, true)
	if j := strings.LastIndexByte(file, '/'); j != -1 {
		file = file[j+1:]
	}
	return
}

func pkgFuncFileLine(calldepth uint8, inclPkg, inclFunc bool) (subsystem, func0, file string, line int) {
	var pc [1]uintptr
	if runtime.Callers(int(calldepth)+2, pc[:]) < 1 {
		return
	}
	frame, _ := runtime.CallersFrames(pc[:]).Next()
	if frame.PC == 0 {
		return
	}
	file, line = frame.File, frame.Line

	if !(inclPkg || inclFunc) {
		return
	}

	var fpath string
	if j := strings.LastIndexByte(file, '/'); j != -1 {
		fpath = file[:j]
	}

	//if you can find it in the func pointer, then it contains all info:
	//e.g. github.com/ugorji/go-catlog/registry.(*Registry).Build
	if func0 = frame.Function; func0 != "" {
		var dot = -1
		for i := len(func0) - 1; i > 0; i-- {
			if func0[i] == '.' {
				dot = i
			} else if func0[i] == '/' {
				break
			}
		}
		if dot != -1 {
			// the package path from the symbol is more reliable than the file's directory.
			fpath = func0[:dot]
			func0 = func0[dot+1:]
		}
	}

	if !inclPkg {
		return
	}

	subsystem = fpath
	if j := strings.LastIndexByte(fpath, '/'); j != -1 {
		subsystem = fpath[j+1:]
	}
	return
}
