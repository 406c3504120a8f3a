//go:build js && wasm

package main

import (
	"bytes"
	"encoding/json"
	"syscall/js"

	"go.uber.org/zap"

	"shiftload/pkg/config"
	"shiftload/pkg/engine"
	"shiftload/pkg/parser"
	"shiftload/pkg/report"
	"shiftload/pkg/session"
)

// NOTE: one session per WASM instance. Loading new files replaces it.

var (
	cfg           = config.Default()
	globalSession *session.Session
)

func errorJSON(msg string) string {
	out, _ := json.Marshal(map[string]string{"error": msg})
	return string(out)
}

func bytesArg(v js.Value) []byte {
	buf := make([]byte, v.Get("length").Int())
	js.CopyBytesToGo(buf, v)
	return buf
}

// load handles shiftloadLoad.
// args[0] = Uint8Array (roster workbook)
// args[1] = Uint8Array (template)
// args[2] = string (template file name)
// Returns the session snapshot as JSON.
func load(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return errorJSON("shiftloadLoad requires 3 arguments: roster bytes, template bytes and template name")
	}

	wb, err := parser.ReadRosterWorkbook(bytes.NewReader(bytesArg(args[0])), cfg.Workbook)
	if err != nil {
		return errorJSON(err.Error())
	}
	tpl, err := parser.LoadTemplate(bytesArg(args[1]), args[2].String())
	if err != nil {
		return errorJSON(err.Error())
	}

	in := engine.Input{
		Directory: wb.Directory,
		Grid:      wb.Grid,
		Codes:     wb.Codes,
		Columns:   tpl.Columns,
	}
	pipeline := engine.NewPipeline(engine.OptionsFromConfig(cfg), zap.NewNop())
	s, err := session.New(in, pipeline, nil)
	if err != nil {
		return errorJSON(err.Error())
	}
	if _, err := s.Resolve(); err != nil {
		return errorJSON(err.Error())
	}
	globalSession = s

	out, _ := json.Marshal(s)
	return string(out)
}

// correct handles shiftloadCorrect.
// args[0] = string (JSON array of {"name", "id", "skip"})
// Applies the decisions and confirms when none is left. Returns the snapshot.
func correct(this js.Value, args []js.Value) interface{} {
	if globalSession == nil {
		return errorJSON("no files loaded; call shiftloadLoad() first")
	}
	if len(args) < 1 {
		return errorJSON("shiftloadCorrect requires 1 argument: corrections JSON")
	}

	var corrections []engine.Correction
	if err := json.Unmarshal([]byte(args[0].String()), &corrections); err != nil {
		return errorJSON("invalid corrections: " + err.Error())
	}
	if err := globalSession.Apply(corrections); err != nil {
		return errorJSON(err.Error())
	}
	if globalSession.State() == session.StateAwaitingCorrection && len(globalSession.Unanswered()) == 0 {
		if err := globalSession.Confirm(); err != nil {
			return errorJSON(err.Error())
		}
	}

	out, _ := json.Marshal(globalSession)
	return string(out)
}

// export handles shiftloadExport.
// args[0] = string (optional output format, csv or xlsx)
// Returns JSON with "file" (base64 via encoding/json), "format" and "summary".
func export(this js.Value, args []js.Value) interface{} {
	if globalSession == nil {
		return errorJSON("no files loaded; call shiftloadLoad() first")
	}

	result, err := globalSession.Export()
	if err != nil {
		return errorJSON(err.Error())
	}

	opts := parser.OutputOptions{
		Format:    cfg.Output.Format,
		Delimiter: cfg.Output.DelimiterRune(),
		Encoding:  cfg.Output.Encoding,
		Sheet:     cfg.Output.Sheet,
	}
	if len(args) > 0 && args[0].Type() == js.TypeString && args[0].String() != "" {
		opts.Format = args[0].String()
	}
	data, err := parser.RenderOutput(opts, result.Headers, result.Values())
	if err != nil {
		return errorJSON(err.Error())
	}

	out, _ := json.Marshal(map[string]interface{}{
		"file":    data,
		"format":  opts.Format,
		"summary": report.Build(result),
	})
	return string(out)
}

func main() {
	js.Global().Set("shiftloadLoad", js.FuncOf(load))
	js.Global().Set("shiftloadCorrect", js.FuncOf(correct))
	js.Global().Set("shiftloadExport", js.FuncOf(export))

	select {}
}
