package script

import (
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// registerConsole installs console.log, info, debug, warn and error,
// writing to log under the "console" name.
func registerConsole(vm *goja.Runtime, log *zap.Logger) {
	log = log.Named("console")
	console := vm.NewObject()
	for name, level := range map[string]zapcore.Level{
		"log":   zapcore.InfoLevel,
		"info":  zapcore.InfoLevel,
		"debug": zapcore.DebugLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
	} {
		_ = console.Set(name, func(call goja.FunctionCall) goja.Value {
			log.Log(level, formatArgs(call.Arguments))
			return goja.Undefined()
		})
	}
	_ = vm.Set("console", console)
}

func formatArgs(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.String()
	}
	return strings.Join(parts, " ")
}
