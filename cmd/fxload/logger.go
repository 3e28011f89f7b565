package main

import (
	"fmt"
	"strings"

	"github.com/golang/glog"
)

// glogLogger adapts bootloader.Logger to glog.
type glogLogger struct{}

func (glogLogger) Debug(msg string, kv ...interface{}) {
	glog.InfoDepth(1, formatKV(msg, kv))
}

func (glogLogger) Info(msg string, kv ...interface{}) {
	glog.InfoDepth(1, formatKV(msg, kv))
}

func (glogLogger) Error(msg string, kv ...interface{}) {
	glog.ErrorDepth(1, formatKV(msg, kv))
}

// formatKV renders msg followed by key=value pairs. A trailing key
// without a value is printed as is.
func formatKV(msg string, kv []interface{}) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		b.WriteByte(' ')
		if i+1 == len(kv) {
			fmt.Fprint(&b, kv[i])
			break
		}
		fmt.Fprintf(&b, "%v=%v", kv[i], kv[i+1])
	}
	return b.String()
}
